package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

type Level int

const (
	Public Level = iota
	Authenticated
	Admin
)

const (
	ctxUserID  = "user_id"
	ctxIsAdmin = "is_admin"
	ctxToken   = "session_token"

	MsgLoginRequired = "Please log in to access this page."
	MsgAccessDenied  = "Access denied"
)

type Gate struct {
	Sessions     *session.Manager
	SecureCookie bool
}

// Load resolves the session cookie into the request context. Requests with
// a missing or dead session continue anonymously.
func (g *Gate) Load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie(session.CookieName)
		if err != nil || ck.Value == "" {
			return next(c)
		}

		ctx := c.Request().Context()
		sess, err := g.Sessions.Resolve(ctx, ck.Value)
		if err != nil {
			if !errors.Is(err, session.ErrInactive) && !errors.Is(err, tokens.ErrInvalidToken) {
				logging.FromContext(ctx).Error("session_resolve_failed", "error", err)
			}
			c.SetCookie(session.DeleteCookie(session.CookieName, "/", g.SecureCookie))
			return next(c)
		}

		c.Set(ctxUserID, sess.UserID)
		c.Set(ctxIsAdmin, sess.IsAdmin)
		c.Set(ctxToken, ck.Value)
		return next(c)
	}
}

// Require guards HTML routes. Admin routes send anyone without the admin flag
// to /home, logged in or not; member routes send anonymous visitors to /login.
func (g *Gate) Require(level Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "auth.require")
			switch {
			case level >= Admin && !IsAdmin(c):
				l.Warn("access_denied", "status", http.StatusSeeOther, "reason", "not an admin", "user_id", UserIDOrZero(c))
				flash.Add(c, flash.Danger, MsgAccessDenied)
				return c.Redirect(http.StatusSeeOther, "/home")
			case level >= Authenticated && !LoggedIn(c):
				l.Info("access_denied", "status", http.StatusSeeOther, "reason", "not logged in")
				flash.Add(c, flash.Warning, MsgLoginRequired)
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			return next(c)
		}
	}
}

// RequireAPI is Require for JSON endpoints.
func (g *Gate) RequireAPI(level Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch {
			case level >= Authenticated && !LoggedIn(c):
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			case level >= Admin && !IsAdmin(c):
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok
}

func UserIDOrZero(c echo.Context) uint {
	id, _ := UserID(c)
	return id
}

func LoggedIn(c echo.Context) bool {
	_, ok := UserID(c)
	return ok
}

func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(ctxIsAdmin).(bool)
	return v
}

func SessionToken(c echo.Context) string {
	v, _ := c.Get(ctxToken).(string)
	return v
}
