package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/view"
)

func render(c echo.Context, code int, name, title string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	return c.Render(code, name, view.Page{
		Title:    title,
		CSRF:     csrf.Token(c),
		LoggedIn: auth.LoggedIn(c),
		IsAdmin:  auth.IsAdmin(c),
		Flashes:  flash.Pop(c),
		Data:     data,
	})
}
