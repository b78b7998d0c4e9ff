package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/utidosgames/storefront/internal/service"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/pkg/logging"
)

type LoyaltyHTTP struct {
	Coins *service.CoinService
	Pro   *service.ProService
}

func (h *LoyaltyHTTP) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.balance")

	userID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	bal, err := h.Coins.Balance(ctx, userID)
	if err != nil {
		return fail(l, "coins_balance_error", err)
	}
	return c.JSON(http.StatusOK, bal)
}

func (h *LoyaltyHTTP) Transactions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.transactions")

	userID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	page, size := pageParams(c)
	res, err := h.Coins.Transactions(ctx, userID, page, size)
	if err != nil {
		return fail(l, "coins_transactions_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoyaltyHTTP) DailyBonus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coins.daily_bonus")

	userID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	entry, err := h.Coins.ClaimDailyBonus(ctx, userID)
	if err != nil {
		return fail(l, "daily_bonus_error", err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *LoyaltyHTTP) ProStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pro.status")

	userID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	st, err := h.Pro.Status(ctx, userID)
	if err != nil {
		return fail(l, "pro_status_error", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *LoyaltyHTTP) AdjustCoins(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.coins_adjust")

	adminID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req transport.AdjustCoinsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("coins_adjust_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	entry, err := h.Coins.Adjust(ctx, adminID, userID, req.Amount, req.Reason)
	if err != nil {
		return fail(l, "coins_adjust_error", err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *LoyaltyHTTP) GrantPro(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.pro_grant")

	adminID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req transport.GrantProRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("pro_grant_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sub, err := h.Pro.Grant(ctx, adminID, userID, req.Plan)
	if err != nil {
		return fail(l, "pro_grant_error", err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *LoyaltyHTTP) RevokePro(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.pro_revoke")

	adminID, err := currentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Pro.Revoke(ctx, adminID, userID); err != nil {
		return fail(l, "pro_revoke_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
