package session

import (
	"log/slog"
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the session token.
const CookieName = "govdesk_token"

// DefaultLoginPath is the redirect target for unauthenticated requests.
const DefaultLoginPath = "/auth/login"

// Guard fails closed on every request inside the protected prefix set:
// without a valid, unexpired, unrevoked token the request is redirected to
// the login entry point. Paths outside the set always pass through
// unchanged. The guard performs no capability checks; those are each
// handler's responsibility against the permission catalog.
type Guard struct {
	Issuer      *Issuer
	Prefixes    []string
	LoginPath   string
	Revocations *RevocationList
	Logger      *slog.Logger
}

// Middleware applies the guard's path matcher and token check.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Protects(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		identity, ok := g.resolveRequest(r)
		if !ok {
			http.Redirect(w, r, g.loginPath(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireIdentity is the variant for data endpoints outside the guarded
// tree: same token check, but a 401 instead of a redirect.
func (g Guard) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := g.resolveRequest(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"oturum gerekli"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

func (g Guard) resolveRequest(r *http.Request) (*Identity, bool) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, false
	}
	identity, err := g.Issuer.Resolve(token)
	if err != nil {
		// Expected control flow, not an operational fault.
		if g.Logger != nil {
			g.Logger.Debug("session token rejected", slog.String("path", r.URL.Path), slog.Any("reason", err))
		}
		return nil, false
	}
	revoked, err := g.Revocations.Revoked(r.Context(), identity.TokenID)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("revocation lookup", slog.Any("error", err))
		}
		return nil, false
	}
	if revoked {
		return nil, false
	}
	return identity, true
}

// Protects reports whether the path falls inside the protected prefix set.
// A prefix matches itself and its subtree; /panelx is outside /panel. Other
// middleware keying off the same set must use this matcher so the prefix
// semantics cannot drift.
func (g Guard) Protects(path string) bool {
	for _, prefix := range g.Prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (g Guard) loginPath() string {
	if g.LoginPath != "" {
		return g.LoginPath
	}
	return DefaultLoginPath
}

// TokenFromRequest extracts the session token from the cookie or, for API
// callers, from a bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
