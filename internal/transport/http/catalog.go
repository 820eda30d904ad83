package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const (
	MsgProductAdded   = "Product added successfully!"
	MsgProductUpdated = "Product updated successfully!"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (h *CatalogHTTP) listPage(c echo.Context, handler, name, title string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	products, err := h.Svc.ListProducts(ctx)
	if err != nil {
		l.Error("list_products_failed", "status", 500, "reason", "cannot read catalog", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read catalog")
	}
	return render(c, http.StatusOK, name, title, map[string]any{"Products": products})
}

func (h *CatalogHTTP) Home(c echo.Context) error {
	return h.listPage(c, "catalog.home", "home", "Home")
}

func (h *CatalogHTTP) Admin(c echo.Context) error {
	return h.listPage(c, "catalog.admin", "admin", "Admin")
}

func (h *CatalogHTTP) EditProducts(c echo.Context) error {
	return h.listPage(c, "catalog.edit_products", "edit_product", "Edit products")
}

func (h *CatalogHTTP) AddProductPage(c echo.Context) error {
	return render(c, http.StatusOK, "add_product", "Add product", nil)
}

func bindProduct(c echo.Context) (service.ProductInput, error) {
	var form transport.ProductForm
	if err := c.Bind(&form); err != nil {
		return service.ProductInput{}, err
	}
	if err := c.Validate(&form); err != nil {
		return service.ProductInput{}, err
	}
	price, err := strconv.ParseFloat(form.Price, 64)
	if err != nil {
		return service.ProductInput{}, errors.New("price must be a number")
	}
	return service.ProductInput{Name: form.Name, Description: form.Description, Price: price}, nil
}

func (h *CatalogHTTP) AddProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add_product")

	in, err := bindProduct(c)
	if err != nil {
		l.Warn("product_create_error", "status", 303, "reason", "invalid form", "error", err)
		flash.Add(c, flash.Danger, err.Error())
		return c.Redirect(http.StatusSeeOther, "/add_product")
	}

	prod, err := h.Svc.CreateProduct(ctx, in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("product_create_error", "status", 303, "reason", "validation", "error", err)
			flash.Add(c, flash.Danger, err.Error())
			return c.Redirect(http.StatusSeeOther, "/add_product")
		}
		l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add product")
	}

	l.Info("create_product_success", "product_id", prod.ID)
	flash.Add(c, flash.Success, MsgProductAdded)
	return c.Redirect(http.StatusSeeOther, "/home")
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_product")

	id, err := parseID(c)
	if err != nil {
		l.Warn("product_update_error", "status", 404, "reason", "id is not a number", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	in, err := bindProduct(c)
	if err != nil {
		l.Warn("product_update_error", "status", 303, "reason", "invalid form", "error", err)
		flash.Add(c, flash.Danger, err.Error())
		return c.Redirect(http.StatusSeeOther, "/edit_product")
	}

	if _, err := h.Svc.UpdateProduct(ctx, id, in); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("product_update_error", "status", 404, "reason", "product not found", "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("product_update_error", "status", 303, "reason", "validation", "error", err)
			flash.Add(c, flash.Danger, err.Error())
			return c.Redirect(http.StatusSeeOther, "/edit_product")
		}
		l.Error("product_update_error", "status", 500, "reason", "cannot update product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	l.Info("update_product_success", "product_id", id)
	flash.Add(c, flash.Success, MsgProductUpdated)
	return c.Redirect(http.StatusSeeOther, "/edit_product")
}
