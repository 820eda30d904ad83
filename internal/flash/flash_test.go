package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestAddThenPopAcrossRequests(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	Add(c, Warning, "first")
	Add(c, Danger, "second")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	last := cookies[len(cookies)-1]
	require.Equal(t, CookieName, last.Name)

	req2 := httptest.NewRequest(http.MethodGet, "/login", nil)
	req2.AddCookie(last)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)

	msgs := Pop(c2)
	require.Equal(t, []Message{{Warning, "first"}, {Danger, "second"}}, msgs)
	require.Nil(t, Pop(c2))

	cleared := rec2.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestPopSameRequest(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	require.Nil(t, Pop(c))
	Add(c, Info, "hello")
	require.Equal(t, []Message{{Info, "hello"}}, Pop(c))
}

func TestDecodeGarbage(t *testing.T) {
	require.Nil(t, decode("%%%"))
	require.Nil(t, decode(encode(nil)[:1]))
}
