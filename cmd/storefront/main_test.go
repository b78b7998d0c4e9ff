package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utidosgames/storefront/internal/config"
	"github.com/utidosgames/storefront/pkg/logging"
)

func TestNewEcho_CORSExposesCSRFToken(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"http://shop.test"}, CSRFEnabled: true}
	e := newEcho(cfg, logging.NewWithWriter(io.Discard, "error"))
	e.GET("/api/v1/catalog/products", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	req.Header.Set(echo.HeaderOrigin, "http://shop.test")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://shop.test", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlExposeHeaders), "X-CSRF-Token")
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
}
