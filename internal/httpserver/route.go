package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/utidosgames/storefront/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	LoyaltyHandler *LoyaltyHTTP
	JWTSecret      []byte
	// Ready reports whether the service can take traffic.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthHandler.Svc)

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)
	auth.POST("/admin-link/redeem", d.AuthHandler.RedeemAdminLink)

	catalog := api.Group("/catalog")
	catalog.GET("/products", d.CatalogHandler.GetProducts)
	catalog.GET("/products/search", d.CatalogHandler.Search)
	catalog.GET("/products/:id", d.CatalogHandler.GetProduct)
	catalog.GET("/products/:id/skus", d.CatalogHandler.SKUFamily)
	catalog.GET("/navigation", d.CatalogHandler.Navigation)

	cart := api.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/items", d.CartHandler.AddToCart)
	cart.DELETE("/items/:product_id", d.CartHandler.DeleteOneFromCart)
	cart.DELETE("", d.CartHandler.DeleteAllFromCart)
	cart.GET("/quote", d.CartHandler.Quote)
	cart.POST("/checkout", d.CartHandler.Checkout)

	api.GET("/orders", d.CartHandler.Orders, authMW.RequireAuth)

	coins := api.Group("/coins", authMW.RequireAuth)
	coins.GET("", d.LoyaltyHandler.Balance)
	coins.GET("/transactions", d.LoyaltyHandler.Transactions)
	coins.POST("/daily-bonus", d.LoyaltyHandler.DailyBonus)

	api.GET("/pro", d.LoyaltyHandler.ProStatus, authMW.RequireAuth)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.GET("/products", d.CatalogHandler.AdminProducts)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)

	admin.GET("/navigation", d.CatalogHandler.AdminNavigation)
	admin.POST("/navigation", d.CatalogHandler.CreateNavigationItem)
	admin.PATCH("/navigation/:id", d.CatalogHandler.PatchNavigationItem)
	admin.DELETE("/navigation/:id", d.CatalogHandler.DeleteNavigationItem)

	admin.POST("/users/:id/force-logout", d.AuthHandler.ForceLogout)
	admin.POST("/users/:id/login-link", d.AuthHandler.IssueAdminLink)
	admin.POST("/users/:id/pro", d.LoyaltyHandler.GrantPro)
	admin.DELETE("/users/:id/pro", d.LoyaltyHandler.RevokePro)
	admin.POST("/users/:id/coins", d.LoyaltyHandler.AdjustCoins)
}
