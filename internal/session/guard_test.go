package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govdesk/govdesk/internal/session"
	_ "github.com/govdesk/govdesk/testing"
)

func newGuard(t *testing.T, revocations *session.RevocationList) (session.Guard, *session.Issuer) {
	t.Helper()
	issuer, err := session.NewIssuer("test-secret", 30*time.Minute)
	require.NoError(t, err)
	guard := session.Guard{
		Issuer:      issuer,
		Prefixes:    []string{"/panel"},
		LoginPath:   "/auth/login",
		Revocations: revocations,
	}
	return guard, issuer
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := session.IdentityFromContext(r.Context())
		if identity != nil {
			w.Header().Set("X-Identity", identity.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func perform(handler http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestGuardForwardsUnprotectedPaths(t *testing.T) {
	guard, _ := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	// No token, an unrelated path: always passes through unchanged.
	res := perform(handler, "/healthz", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, res.Header().Get("X-Identity"))

	// Garbage tokens are irrelevant outside the matcher.
	res = perform(handler, "/auth/login", "bozuk-token")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestGuardRedirectsProtectedPathWithoutToken(t *testing.T) {
	guard, _ := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	res := perform(handler, "/panel", "")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))
}

func TestGuardRedirectsInvalidToken(t *testing.T) {
	guard, _ := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	res := perform(handler, "/panel/envanter", "bozuk-token")
	assert.Equal(t, http.StatusSeeOther, res.Code)
}

func TestGuardRedirectsExpiredToken(t *testing.T) {
	guard, _ := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	expiredIssuer, err := session.NewIssuer("test-secret", time.Nanosecond)
	require.NoError(t, err)
	token, err := expiredIssuer.Issue(&session.Identity{ID: 7, Username: "valiofis", Role: "admin"})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	res := perform(handler, "/panel", token)
	assert.Equal(t, http.StatusSeeOther, res.Code)
}

func TestGuardForwardsValidTokenWithIdentity(t *testing.T) {
	guard, issuer := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	token, err := issuer.Issue(&session.Identity{ID: 7, Username: "valiofis", Role: "admin"})
	require.NoError(t, err)

	res := perform(handler, "/panel/randevu", token)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "valiofis", res.Header().Get("X-Identity"))
}

func TestGuardAcceptsBearerToken(t *testing.T) {
	guard, issuer := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	token, err := issuer.Issue(&session.Identity{ID: 7, Username: "valiofis", Role: "admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/panel", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestGuardPrefixBoundary(t *testing.T) {
	guard, _ := newGuard(t, nil)
	handler := guard.Middleware(echoIdentity())

	// /panelx shares a textual prefix but is outside the tree.
	res := perform(handler, "/panelx", "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestProtectsMatcher(t *testing.T) {
	guard := session.Guard{Prefixes: []string{"/panel", "/yonetim/"}}
	assert.True(t, guard.Protects("/panel"))
	assert.True(t, guard.Protects("/panel/envanter"))
	assert.False(t, guard.Protects("/panelx"))
	assert.True(t, guard.Protects("/yonetim/rapor"))
	assert.False(t, guard.Protects("/auth/login"))
}

func TestGuardRejectsRevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	revocations := session.NewRevocationList(client)

	guard, issuer := newGuard(t, revocations)
	handler := guard.Middleware(echoIdentity())

	token, err := issuer.Issue(&session.Identity{ID: 7, Username: "valiofis", Role: "admin"})
	require.NoError(t, err)

	res := perform(handler, "/panel", token)
	require.Equal(t, http.StatusOK, res.Code)

	identity, err := issuer.Resolve(token)
	require.NoError(t, err)
	require.NoError(t, revocations.Revoke(context.Background(), identity.TokenID, identity.ExpiresAt))

	res = perform(handler, "/panel", token)
	assert.Equal(t, http.StatusSeeOther, res.Code)
}

func TestRequireIdentityAnswers401(t *testing.T) {
	guard, issuer := newGuard(t, nil)
	handler := guard.RequireIdentity(echoIdentity())

	res := perform(handler, "/api/kimlik", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	token, err := issuer.Issue(&session.Identity{ID: 7, Username: "valiofis", Role: "admin"})
	require.NoError(t, err)
	res = perform(handler, "/api/kimlik", token)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "valiofis", res.Header().Get("X-Identity"))
}
