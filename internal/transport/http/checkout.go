package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const MsgBadOrderLink = "This order link is invalid or has expired."

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) ShippingPage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.shipping_page")

	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	prod, err := h.Svc.Catalog.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("shipping_page_failed", "status", 404, "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("shipping_page_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load product")
	}
	return render(c, http.StatusOK, "shipping", "Shipping details", map[string]any{"Product": prod})
}

func (h *CheckoutHTTP) SubmitShipping(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit_shipping")

	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	back := "/shipping_details/" + strconv.FormatUint(uint64(id), 10)

	var form transport.ShippingForm
	if err := c.Bind(&form); err != nil {
		l.Warn("shipping_failed", "status", 400, "reason", "invalid form", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("shipping_failed", "status", 303, "reason", "validation", "error", err)
		flash.Add(c, flash.Danger, err.Error())
		return c.Redirect(http.StatusSeeOther, back)
	}
	quantity, err := strconv.Atoi(form.Quantity)
	if err != nil {
		flash.Add(c, flash.Danger, "quantity must be a whole number")
		return c.Redirect(http.StatusSeeOther, back)
	}

	order, err := h.Svc.Quote(ctx, auth.UserIDOrZero(c), id, quantity, form.Address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("shipping_failed", "status", 404, "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("shipping_failed", "status", 303, "reason", "validation", "error", err)
			flash.Add(c, flash.Danger, err.Error())
			return c.Redirect(http.StatusSeeOther, back)
		}
		l.Error("shipping_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot price order")
	}

	token, err := h.Svc.Seal(ctx, order)
	if err != nil {
		l.Error("shipping_failed", "status", 500, "reason", "cannot sign order", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot price order")
	}

	return c.Redirect(http.StatusSeeOther, "/order_confirmation?token="+url.QueryEscape(token))
}

func (h *CheckoutHTTP) Confirmation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.confirmation")

	order, err := h.Svc.Confirm(c.QueryParam("token"), auth.UserIDOrZero(c))
	if err != nil {
		l.Warn("order_confirmation_failed", "status", 303, "reason", "bad order token", "error", err)
		flash.Add(c, flash.Danger, MsgBadOrderLink)
		return c.Redirect(http.StatusSeeOther, "/home")
	}

	l.Info("order_viewed", "order_id", order.ID, "product_id", order.ProductID, "total_price", order.TotalPrice)
	return render(c, http.StatusOK, "order", "Order confirmation", map[string]any{"Order": order})
}
