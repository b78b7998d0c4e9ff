package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/internal/service"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/pkg/db"
	"github.com/utidosgames/storefront/pkg/events"
)

var testSecret = []byte("test-jwt-secret")

type testServer struct {
	e    *echo.Echo
	auth *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))

	pub := events.Nop{}
	authSvc := service.NewAuthService(r, pub, service.AuthConfig{
		AccessSecret:  testSecret,
		RefreshSecret: []byte("test-refresh-secret"),
		LinkBaseURL:   "http://shop.test/admin-login",
	})
	coinSvc := service.NewCoinService(r, pub, 2, 10)
	proSvc := service.NewProService(r, pub)

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: pub}},
		CartHandler: &CartHTTP{Svc: &service.CartService{
			Repo: r, Coins: coinSvc, Pro: proSvc, Events: pub, WhatsAppPhone: "5511999990000",
		}},
		LoyaltyHandler: &LoyaltyHTTP{Coins: coinSvc, Pro: proSvc},
		JWTSecret:      testSecret,
	})
	return &testServer{e: e, auth: authSvc}
}

type session struct {
	cookies map[string]*http.Cookie
}

func (s *testServer) do(t *testing.T, sess *session, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if sess != nil {
		for _, ck := range sess.cookies {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	if sess != nil {
		for _, ck := range rec.Result().Cookies() {
			if ck.MaxAge < 0 {
				delete(sess.cookies, ck.Name)
				continue
			}
			sess.cookies[ck.Name] = ck
		}
	}
	return rec
}

func (s *testServer) login(t *testing.T, username, password string) *session {
	t.Helper()
	sess := &session{cookies: map[string]*http.Cookie{}}
	rec := s.do(t, sess, http.MethodPost, "/api/v1/auth/login", transport.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sess
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, nil, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, nil, http.MethodGet, "/health/ready", nil).Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, nil, http.MethodPost, "/api/v1/auth/register", transport.RegisterRequest{Username: "alice", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, nil, http.MethodPost, "/api/v1/auth/register", transport.RegisterRequest{Username: "alice", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, nil, http.MethodPost, "/api/v1/auth/login", transport.LoginRequest{Username: "alice", Password: "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sess := s.login(t, "alice", "secret1")
	require.Contains(t, sess.cookies, "accessToken")

	rec = s.do(t, sess, http.MethodPost, "/api/v1/auth/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, sess, http.MethodGet, "/api/v1/coins", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, sess, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, sess.cookies, "accessToken")

	rec = s.do(t, sess, http.MethodGet, "/api/v1/coins", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	user := s.login(t, "alice", "secret1")
	rec := s.do(t, user, http.MethodPost, "/api/v1/admin/products", transport.CreateProductRequest{Name: "X", PriceCents: 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, nil, http.MethodPost, "/api/v1/admin/products", transport.CreateProductRequest{Name: "X", PriceCents: 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStorefrontFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.auth.EnsureAdmin(ctx, "admin", "adminpass"))
	customer, err := s.auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	admin := s.login(t, "admin", "adminpass")
	member := int64(17990)
	rec := s.do(t, admin, http.MethodPost, "/api/v1/admin/products", transport.CreateProductRequest{
		Name: "Far Cry 6", Platform: "PS5", Tags: []string{"ubisoft"}, PriceCents: 19990, ProPriceCents: &member, Stock: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	farCry := decode[models.Product](t, rec)

	rec = s.do(t, admin, http.MethodPost, "/api/v1/admin/products", transport.CreateProductRequest{
		Name: "Street Fighter 6", Platform: "PS5", PriceCents: 24990, Stock: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, nil, http.MethodGet, "/api/v1/catalog/products/search?q="+url.QueryEscape("far cry 6"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[transport.SearchResponse](t, rec)
	require.Equal(t, 1, found.Total)
	assert.Equal(t, farCry.ID, found.Items[0].Product.ID)

	rec = s.do(t, nil, http.MethodGet, "/api/v1/catalog/products/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, nil, http.MethodGet, "/api/v1/catalog/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, admin, http.MethodPost, "/api/v1/admin/users/"+customer.ID.String()+"/pro", transport.GrantProRequest{Plan: models.ProPlanMonthly})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, admin, http.MethodPost, "/api/v1/admin/users/"+customer.ID.String()+"/coins", transport.AdjustCoinsRequest{Amount: 500, Reason: "welcome"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	alice := s.login(t, "alice", "secret1")
	rec = s.do(t, alice, http.MethodPost, "/api/v1/cart/items", transport.AddItemRequest{ProductID: farCry.ID, Quantity: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, alice, http.MethodGet, "/api/v1/cart/quote?use_coins=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode[transport.Quote](t, rec)
	assert.True(t, quote.ProApplied)
	assert.Equal(t, int64(17990), quote.SubtotalCents)
	assert.Equal(t, int64(17490), quote.TotalCents)

	rec = s.do(t, alice, http.MethodPost, "/api/v1/cart/checkout", transport.CheckoutRequest{UseCoins: true})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[transport.CheckoutResponse](t, rec)
	assert.Equal(t, models.OrderStatusSentToWhatsApp, out.Order.Status)
	assert.Contains(t, out.WhatsAppURL, "https://wa.me/5511999990000?text=")

	rec = s.do(t, alice, http.MethodPost, "/api/v1/cart/checkout", transport.CheckoutRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, alice, http.MethodGet, "/api/v1/pro", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[transport.ProStatusResponse](t, rec).Active)

	rec = s.do(t, alice, http.MethodPost, "/api/v1/coins/daily-bonus", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, alice, http.MethodPost, "/api/v1/coins/daily-bonus", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, alice, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Order](t, rec), 1)
}

func TestAdminEdgeFunctions(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.auth.EnsureAdmin(ctx, "admin", "adminpass"))
	customer, err := s.auth.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	admin := s.login(t, "admin", "adminpass")
	alice := s.login(t, "alice", "secret1")

	rec := s.do(t, admin, http.MethodPost, "/api/v1/admin/users/"+customer.ID.String()+"/login-link", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	link := decode[transport.AdminLinkResponse](t, rec)
	u, err := url.Parse(link.URL)
	require.NoError(t, err)

	fresh := &session{cookies: map[string]*http.Cookie{}}
	rec = s.do(t, fresh, http.MethodPost, "/api/v1/auth/admin-link/redeem", transport.RedeemLinkRequest{Token: u.Query().Get("token")})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, fresh.cookies, "accessToken")

	rec = s.do(t, nil, http.MethodPost, "/api/v1/auth/admin-link/redeem", transport.RedeemLinkRequest{Token: u.Query().Get("token")})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, admin, http.MethodPost, "/api/v1/admin/users/"+customer.ID.String()+"/force-logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[transport.ForceLogoutResponse](t, rec).RevokedTokens)

	rec = s.do(t, alice, http.MethodPost, "/api/v1/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, admin, http.MethodPost, "/api/v1/admin/users/not-a-uuid/force-logout", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
