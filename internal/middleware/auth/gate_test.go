package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/session"
)

func newGate(t *testing.T) *Gate {
	m := session.NewManager(&session.GormStore{DB: dbtest.Open(t)}, []byte("gate-secret"), time.Hour)
	return &Gate{Sessions: m}
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(g *Gate, level Level, cookie *http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := g.Load(g.Require(level)(ok))
	_ = h(c)
	return rec, c
}

func sessionCookie(t *testing.T, g *Gate, userID uint, admin bool) *http.Cookie {
	token, _, err := g.Sessions.Issue(context.Background(), userID, admin)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func TestRequireAnonymous(t *testing.T) {
	g := newGate(t)

	rec, _ := serve(g, Public, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, c := serve(g, Authenticated, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	require.Equal(t, []flash.Message{{Category: flash.Warning, Text: MsgLoginRequired}}, flash.Pop(c))

	rec, c = serve(g, Admin, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/home", rec.Header().Get(echo.HeaderLocation))
	require.Equal(t, []flash.Message{{Category: flash.Danger, Text: MsgAccessDenied}}, flash.Pop(c))
}

func TestRequireAdmin(t *testing.T) {
	g := newGate(t)

	user := sessionCookie(t, g, 1, false)
	rec, _ := serve(g, Authenticated, user)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, c := serve(g, Admin, user)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/home", rec.Header().Get(echo.HeaderLocation))
	require.Equal(t, []flash.Message{{Category: flash.Danger, Text: MsgAccessDenied}}, flash.Pop(c))

	admin := sessionCookie(t, g, 2, true)
	rec, c = serve(g, Admin, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	id, found := UserID(c)
	require.True(t, found)
	require.EqualValues(t, 2, id)
	require.Equal(t, admin.Value, SessionToken(c))
}

func TestLoadClearsDeadSession(t *testing.T) {
	g := newGate(t)
	ck := sessionCookie(t, g, 1, false)
	require.NoError(t, g.Sessions.Revoke(context.Background(), ck.Value))

	rec, c := serve(g, Public, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, LoggedIn(c))

	var cleared bool
	for _, rc := range rec.Result().Cookies() {
		if rc.Name == session.CookieName && rc.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)

	rec, _ = serve(g, Authenticated, &http.Cookie{Name: session.CookieName, Value: "forged"})
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestRequireAPI(t *testing.T) {
	g := newGate(t)
	e := echo.New()

	run := func(level Level, ck *http.Cookie) error {
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		if ck != nil {
			req.AddCookie(ck)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		return g.Load(g.RequireAPI(level)(ok))(c)
	}

	err := run(Authenticated, nil)
	he, isHTTP := err.(*echo.HTTPError)
	require.True(t, isHTTP)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	err = run(Admin, sessionCookie(t, g, 1, false))
	he, isHTTP = err.(*echo.HTTPError)
	require.True(t, isHTTP)
	require.Equal(t, http.StatusForbidden, he.Code)

	require.NoError(t, run(Admin, sessionCookie(t, g, 1, true)))
}
