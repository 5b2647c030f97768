package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/govdesk/govdesk/internal/rbac"
	"github.com/govdesk/govdesk/internal/session"
	_ "github.com/govdesk/govdesk/testing"
)

func performWithIdentity(mw func(http.Handler) http.Handler, identity *session.Identity) *httptest.ResponseRecorder {
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/panel/envanter", nil)
	if identity != nil {
		req = req.WithContext(session.ContextWithIdentity(req.Context(), identity))
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRequireAnyWithoutIdentity(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	res := performWithIdentity(mw.RequireAny(rbac.PermEnvanter), nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyGrantedByRole(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	res := performWithIdentity(mw.RequireAny(rbac.PermEnvanter), &session.Identity{Role: "idari"})
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestRequireAnyDeniedOutsideRoleSet(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	res := performWithIdentity(mw.RequireAny(rbac.PermArac), &session.Identity{Role: "idari"})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyGrantedByOverride(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	identity := &session.Identity{Role: "idari", CustomPermissions: "arac"}
	res := performWithIdentity(mw.RequireAny(rbac.PermArac), identity)
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestRequireAnyAllRole(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	res := performWithIdentity(mw.RequireAny("tanimsiz-yetenek"), &session.Identity{Role: "admin"})
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestRequireAllMixedGrants(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	granted := performWithIdentity(mw.RequireAll(rbac.PermRandevu, rbac.PermZiyaret), &session.Identity{Role: "danisma"})
	assert.Equal(t, http.StatusNoContent, granted.Code)

	denied := performWithIdentity(mw.RequireAll(rbac.PermRandevu, rbac.PermArac), &session.Identity{Role: "danisma"})
	assert.Equal(t, http.StatusForbidden, denied.Code)
}

func TestRequireAnyWithoutPermsPassesThrough(t *testing.T) {
	mw := rbac.Middleware{Catalog: rbac.DefaultCatalog()}

	res := performWithIdentity(mw.RequireAny(), nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
}
