package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(DefaultConfig()))
	e.GET("/form", func(c echo.Context) error { return c.String(http.StatusOK, Token(c)) })
	e.POST("/form", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	return e
}

func postForm(e *echo.Echo, token string, cookie *http.Cookie, origin string) *httptest.ResponseRecorder {
	form := url.Values{"csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDoubleSubmit(t *testing.T) {
	e := newEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Body.String()
	require.NotEmpty(t, token)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "XSRF-TOKEN" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.Equal(t, token, cookie.Value)

	require.Equal(t, http.StatusNoContent, postForm(e, token, cookie, "http://example.com").Code)
	require.Equal(t, http.StatusForbidden, postForm(e, "wrong", cookie, "").Code)
	require.Equal(t, http.StatusForbidden, postForm(e, token, nil, "").Code)
	require.Equal(t, http.StatusForbidden, postForm(e, token, cookie, "http://evil.test").Code)
}

func TestSameOriginNeedsOriginOrReferer(t *testing.T) {
	e := newEcho()
	token := "0123456789abcdef0123456789abcdef"
	cookie := &http.Cookie{Name: "XSRF-TOKEN", Value: token}

	// a valid token alone is not enough
	require.Equal(t, http.StatusForbidden, postForm(e, token, cookie, "").Code)

	form := url.Values{"csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Referer", "http://example.com/form")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
