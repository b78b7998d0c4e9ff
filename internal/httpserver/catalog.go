package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/utidosgames/storefront/internal/service"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/internal/util"
	"github.com/utidosgames/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func pageParams(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(ctx, id, false)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	return h.listProducts(c, false)
}

func (h *CatalogHTTP) AdminProducts(c echo.Context) error {
	return h.listProducts(c, true)
}

func (h *CatalogHTTP) listProducts(c echo.Context, includeHidden bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page, size := pageParams(c)
	res, err := h.Svc.GetProducts(ctx, page, size, includeHidden)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) SKUFamily(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.sku_family")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	fam, err := h.Svc.SKUFamily(ctx, id)
	if err != nil {
		return fail(l, "sku_family_failed", err)
	}
	return c.JSON(http.StatusOK, fam)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, size := pageParams(c)
	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_failed", err)
	}

	l.Info("search_success", "query", res.Query, "total", res.Total)
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("product_created", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch_product")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_product")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) Navigation(c echo.Context) error {
	return h.navigation(c, false)
}

func (h *CatalogHTTP) AdminNavigation(c echo.Context) error {
	return h.navigation(c, true)
}

func (h *CatalogHTTP) navigation(c echo.Context, includeHidden bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "navigation.list")

	items, err := h.Svc.Navigation(ctx, includeHidden)
	if err != nil {
		return fail(l, "navigation_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateNavigationItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "navigation.create")

	var req transport.NavigationRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("navigation_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	item, err := h.Svc.CreateNavigationItem(ctx, req)
	if err != nil {
		return fail(l, "navigation_create_error", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CatalogHTTP) PatchNavigationItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "navigation.patch")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req transport.PatchNavigationRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("navigation_patch_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	item, err := h.Svc.PatchNavigationItem(ctx, id, req)
	if err != nil {
		return fail(l, "navigation_patch_error", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHTTP) DeleteNavigationItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "navigation.delete")

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteNavigationItem(ctx, id); err != nil {
		return fail(l, "navigation_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
