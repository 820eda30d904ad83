package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const (
	MsgInvalidLogin  = "Invalid username or password"
	MsgUsernameTaken = "Username already exists"
	MsgRegistered    = "Registration successful!"
	MsgLoggedOut     = "You have been logged out."
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func (h *AuthHTTP) Root(c echo.Context) error {
	if auth.LoggedIn(c) {
		return c.Redirect(http.StatusSeeOther, "/home")
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHTTP) LoginPage(c echo.Context) error {
	return render(c, http.StatusOK, "login", "Log in", map[string]any{"Username": ""})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var form transport.LoginForm
	if err := c.Bind(&form); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid form", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	res, err := h.Svc.Login(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			flash.Add(c, flash.Danger, MsgInvalidLogin)
			return render(c, http.StatusUnauthorized, "login", "Log in", map[string]any{"Username": form.Username})
		}
		l.Error("login_failed", "status", 500, "reason", "cannot create session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
	}

	c.SetCookie(session.CreateCookie(session.CookieName, res.Token, "/", res.ExpiresAt, h.SecureCookie))
	l.Info("login_success", "user_id", res.User.ID)
	return c.Redirect(http.StatusSeeOther, "/home")
}

func (h *AuthHTTP) RegisterPage(c echo.Context) error {
	return render(c, http.StatusOK, "register", "Register", map[string]any{"AllowSelfAdmin": h.Svc.AllowSelfAdmin})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	params, err := c.FormParams()
	if err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid form", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	// the checkbox is sent only when ticked
	_, wantAdmin := params["is_admin"]

	var form transport.RegisterForm
	if err := c.Bind(&form); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid form", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("register_failed", "status", 303, "reason", "validation", "error", err)
		flash.Add(c, flash.Warning, err.Error())
		return c.Redirect(http.StatusSeeOther, "/register")
	}

	user, err := h.Svc.Register(ctx, form.Username, form.Password, wantAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			l.Warn("register_failed", "status", 303, "reason", "username taken")
			flash.Add(c, flash.Warning, MsgUsernameTaken)
			return c.Redirect(http.StatusSeeOther, "/register")
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_failed", "status", 303, "reason", "validation", "error", err)
			flash.Add(c, flash.Warning, err.Error())
			return c.Redirect(http.StatusSeeOther, "/register")
		}
		l.Error("register_failed", "status", 500, "reason", "cannot create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot register")
	}

	l.Info("register_success", "user_id", user.ID, "is_admin", user.IsAdmin)
	flash.Add(c, flash.Success, MsgRegistered)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// LogOut is safe to call with or without a live session.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(session.CookieName); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			l.Error("logout_failed", "reason", "cannot revoke session", "error", err)
		}
	}

	c.SetCookie(session.DeleteCookie(session.CookieName, "/", h.SecureCookie))
	flash.Add(c, flash.Info, MsgLoggedOut)
	l.Info("logout_success")
	return c.Redirect(http.StatusSeeOther, "/login")
}
