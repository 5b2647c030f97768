package rbac

import (
	"encoding/json"
	"net/http"
	"sort"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/govdesk/govdesk/internal/session"
)

// CatalogHandler exposes read-only views of the permission catalog so the
// panel can render which actions an account may perform.
type CatalogHandler struct {
	logger  *slog.Logger
	catalog *Catalog
	rbac    Middleware
}

// NewCatalogHandler builds a CatalogHandler instance.
func NewCatalogHandler(logger *slog.Logger, catalog *Catalog, rbac Middleware) *CatalogHandler {
	return &CatalogHandler{logger: logger, catalog: catalog, rbac: rbac}
}

// MountRoutes registers catalog routes.
func (h *CatalogHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.myPermissions)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermPersonel))
		r.Get("/", h.listRoles)
	})
}

func (h *CatalogHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.catalog.Roles()
	sort.Strings(roles)
	payload := make(map[string][]string, len(roles))
	for _, role := range roles {
		perms := h.catalog.Permissions(role)
		sort.Strings(perms)
		payload[role] = perms
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"roles": payload})
}

func (h *CatalogHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	identity := session.IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	resolved := h.catalog.Resolve(identity.Role, identity.CustomPermissions)
	perms := make([]string, 0, len(resolved.members))
	for p := range resolved.members {
		perms = append(perms, p)
	}
	sort.Strings(perms)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"role":        identity.Role,
		"permissions": perms,
		"all":         resolved.all,
	})
}

func (h *CatalogHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("encode catalog response", slog.Any("error", err))
	}
}
