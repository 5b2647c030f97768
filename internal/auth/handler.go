package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/govdesk/govdesk/internal/observability"
	"github.com/govdesk/govdesk/internal/session"
	"github.com/govdesk/govdesk/internal/shared"
)

// UpgradeEnqueuer schedules the background re-hash of a legacy credential.
// Verification itself never mutates the store; the queue is the only path.
type UpgradeEnqueuer interface {
	EnqueueCredentialUpgrade(ctx context.Context, userID int64, newSecret, oldSecret string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	issuer      *session.Issuer
	revocations *session.RevocationList
	upgrades    UpgradeEnqueuer
	metrics     *observability.Metrics
	validator   *validator.Validate
	secure      bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, issuer *session.Issuer, revocations *session.RevocationList, upgrades UpgradeEnqueuer, metrics *observability.Metrics, secure bool) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		issuer:      issuer,
		revocations: revocations,
		upgrades:    upgrades,
		metrics:     metrics,
		validator:   validator.New(),
		secure:      secure,
	}
}

// MountRoutes registers auth routes on the provided router. Both entry
// points stay outside the protected prefix set.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Username          string `json:"username"`
	Role              string `json:"role"`
	CustomPermissions string `json:"customPermissions,omitempty"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"mesaj": "Oturum açmak için kullanıcı adı ve şifre gönderin.",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "istek çözümlenemedi"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kullanıcı adı ve şifre zorunlu"})
		return
	}

	verified, err := h.service.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingInput):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kullanıcı adı ve şifre zorunlu"})
		case errors.Is(err, shared.ErrStoreUnavailable):
			h.logger.Error("credential store fault", slog.Any("error", err))
			h.metrics.ObserveLogin("fault", "")
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sunucu hatası"})
		default:
			// NotFound and PasswordMismatch collapse into one response so
			// callers cannot enumerate accounts.
			h.logger.Debug("login rejected", slog.String("username", req.Username))
			h.metrics.ObserveLogin("rejected", "")
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Kullanıcı adı veya şifre hatalı"})
		}
		return
	}
	h.metrics.ObserveLogin("success", verified.Scheme.String())

	token, err := h.issuer.Issue(&session.Identity{
		ID:                verified.ID,
		Name:              verified.Name,
		Username:          verified.Username,
		Role:              verified.Role,
		CustomPermissions: verified.CustomPermissions,
	})
	if err != nil {
		h.logger.Error("issue session token", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sunucu hatası"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(h.issuer.TTL()),
	})

	if verified.NeedsUpgrade && h.upgrades != nil {
		if newSecret, err := UpgradeHash(req.Password); err != nil {
			h.logger.Warn("derive upgrade hash", slog.Any("error", err))
		} else if err := h.upgrades.EnqueueCredentialUpgrade(r.Context(), verified.ID, newSecret, LegacyDigest(req.Password)); err != nil {
			h.logger.Warn("enqueue credential upgrade", slog.Int64("user_id", verified.ID), slog.Any("error", err))
		}
	}

	h.writeJSON(w, http.StatusOK, loginResponse{
		ID:                verified.ID,
		Name:              verified.Name,
		Username:          verified.Username,
		Role:              verified.Role,
		CustomPermissions: verified.CustomPermissions,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := session.TokenFromRequest(r); token != "" {
		if identity, err := h.issuer.Resolve(token); err == nil {
			if err := h.revocations.Revoke(r.Context(), identity.TokenID, identity.ExpiresAt); err != nil {
				h.logger.Warn("revoke session token", slog.Any("error", err))
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, session.DefaultLoginPath, http.StatusSeeOther)
}

func decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostFormValue("username")
	req.Password = r.PostFormValue("password")
	return req, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("encode auth response", slog.Any("error", err))
	}
}
