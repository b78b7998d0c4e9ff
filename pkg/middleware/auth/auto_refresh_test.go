package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwthelp "github.com/utidosgames/storefront/pkg/jwt"
	"github.com/utidosgames/storefront/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type stubRefresher struct {
	sess  *Session
	err   error
	calls int
}

func (s *stubRefresher) RefreshSession(context.Context, string) (*Session, error) {
	s.calls++
	return s.sess, s.err
}

func signAccess(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	raw, err := tokens.SignAccess(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, secret)
	require.NoError(t, err)
	return raw
}

func run(t *testing.T, h echo.MiddlewareFunc, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context, error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	called := false
	err := h(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, c, err, called
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	access := signAccess(t, tokens.RoleUser, time.Now().Add(time.Minute))

	_, c, err, called := run(t, m.RequireAuth, &http.Cookie{Name: jwthelp.AccessCookie, Value: access})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "user-1", c.Get(CtxUserID))
	assert.Equal(t, tokens.RoleUser, c.Get(CtxRole))
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)

	_, _, err, called := run(t, m.RequireAuth)
	assert.False(t, called)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAdmin_ForbidsUser(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, nil)
	access := signAccess(t, tokens.RoleUser, time.Now().Add(time.Minute))

	_, _, err, called := run(t, m.RequireAdmin, &http.Cookie{Name: jwthelp.AccessCookie, Value: access})
	assert.False(t, called)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestRequireAuth_ExpiredTokenIsRefreshed(t *testing.T) {
	fresh := signAccess(t, tokens.RoleAdmin, time.Now().Add(time.Minute))
	ref := &stubRefresher{sess: &Session{
		AccessToken:  fresh,
		RefreshToken: "new-refresh",
		AccessExp:    time.Now().Add(time.Minute),
		RefreshExp:   time.Now().Add(time.Hour),
	}}
	m := NewAutoRefreshMiddleware(secret, ref)
	expired := signAccess(t, tokens.RoleAdmin, time.Now().Add(-time.Minute))

	rec, _, err, called := run(t, m.RequireAdmin,
		&http.Cookie{Name: jwthelp.AccessCookie, Value: expired},
		&http.Cookie{Name: jwthelp.RefreshCookie, Value: "old-refresh"},
	)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, ref.calls)

	setCookies := rec.Result().Cookies()
	names := map[string]string{}
	for _, ck := range setCookies {
		names[ck.Name] = ck.Value
	}
	assert.Equal(t, fresh, names[jwthelp.AccessCookie])
	assert.Equal(t, "new-refresh", names[jwthelp.RefreshCookie])
}

func TestRequireAuth_RefreshFailureClearsCookies(t *testing.T) {
	ref := &stubRefresher{err: errors.New("revoked")}
	m := NewAutoRefreshMiddleware(secret, ref)
	expired := signAccess(t, tokens.RoleUser, time.Now().Add(-time.Minute))

	rec, _, err, called := run(t, m.RequireAuth,
		&http.Cookie{Name: jwthelp.AccessCookie, Value: expired},
		&http.Cookie{Name: jwthelp.RefreshCookie, Value: "old-refresh"},
	)
	assert.False(t, called)
	require.Error(t, err)
	for _, ck := range rec.Result().Cookies() {
		assert.Equal(t, -1, ck.MaxAge)
	}
}
