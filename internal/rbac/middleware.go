package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/govdesk/govdesk/internal/session"
)

// Middleware wires capability checks for HTTP handlers. The route guard
// only establishes identity; fine-grained checks happen here, per handler,
// against the catalog.
type Middleware struct {
	Catalog *Catalog
	Logger  *slog.Logger
}

// RequireAny ensures the current identity holds at least one of the
// required capabilities.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			resolved, ok := m.resolve(r)
			if !ok || !resolved.HasAny(normalized...) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAll ensures the current identity holds all required capabilities.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			resolved, ok := m.resolve(r)
			if !ok || !resolved.HasAll(normalized...) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) resolve(r *http.Request) (PermissionSet, bool) {
	identity := session.IdentityFromContext(r.Context())
	if identity == nil {
		if m.Logger != nil {
			m.Logger.Debug("capability check without identity", slog.String("path", r.URL.Path))
		}
		return PermissionSet{}, false
	}
	return m.Catalog.Resolve(identity.Role, identity.CustomPermissions), true
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
