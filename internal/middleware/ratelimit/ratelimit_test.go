package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func hit(e *echo.Echo, method, ip string) int {
	req := httptest.NewRequest(method, "/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func newEcho(l *Limiter) *echo.Echo {
	e := echo.New()
	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/login", h, l.Middleware)
	e.POST("/login", h, l.Middleware)
	return e
}

func TestLocalLimiter(t *testing.T) {
	e := newEcho(New(nil, PerMinute(2), "login"))

	require.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "10.0.0.1"))
	require.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit(e, http.MethodPost, "10.0.0.1"))

	// other clients and page views are unaffected
	require.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "10.0.0.2"))
	require.Equal(t, http.StatusNoContent, hit(e, http.MethodGet, "10.0.0.1"))
}

func TestRedisDownFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	e := newEcho(New(rdb, PerMinute(1), "login"))
	require.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit(e, http.MethodPost, "10.0.0.1"))
}
