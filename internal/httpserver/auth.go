package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/utidosgames/storefront/internal/service"
	"github.com/utidosgames/storefront/internal/transport"
	jwthelp "github.com/utidosgames/storefront/pkg/jwt"
	"github.com/utidosgames/storefront/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func setSession(c echo.Context, res *service.LoginResult) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearSession(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_successful", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	setSession(c, res)
	l.Info("login_successful")
	return c.JSON(http.StatusOK, transport.LoginResponse{IsAdmin: res.IsAdmin})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	ck, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		clearSession(c)
		return fail(l, "refresh_failed", err)
	}

	setSession(c, res)
	return c.JSON(http.StatusOK, transport.LoginResponse{IsAdmin: res.IsAdmin})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		if err := h.Svc.LogOut(ctx, ck.Value); err != nil {
			clearSession(c)
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	clearSession(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) RedeemAdminLink(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_redeem_link")

	var req transport.RedeemLinkRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("redeem_link_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.RedeemAdminLink(ctx, req.Token)
	if err != nil {
		return fail(l, "redeem_link_failed", err)
	}

	setSession(c, res)
	l.Info("redeem_link_successful")
	return c.JSON(http.StatusOK, transport.LoginResponse{IsAdmin: res.IsAdmin})
}

func (h *AuthHTTP) ForceLogout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_force_logout")

	adminID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	revoked, err := h.Svc.ForceLogout(ctx, adminID, userID)
	if err != nil {
		return fail(l, "force_logout_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ForceLogoutResponse{UserID: userID.String(), RevokedTokens: revoked})
}

func (h *AuthHTTP) IssueAdminLink(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_login_link")

	adminID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	link, err := h.Svc.IssueAdminLink(ctx, adminID, userID)
	if err != nil {
		return fail(l, "admin_link_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.AdminLinkResponse{URL: link.URL, ExpiresAt: link.ExpiresAt})
}
