package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/storefront/internal/logging"
)

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

// Limiter throttles requests per client IP. It uses redis when a client is
// configured and falls back to an in-process token bucket otherwise, or when
// redis errors.
type Limiter struct {
	limit    redis_rate.Limit
	redis    *redis_rate.Limiter
	fallback *localLimiter
	prefix   string
}

func New(rdb *redis.Client, limit redis_rate.Limit, prefix string) *Limiter {
	l := &Limiter{limit: limit, fallback: &localLimiter{}, prefix: prefix}
	if rdb != nil {
		l.redis = redis_rate.NewLimiter(rdb)
	}
	return l
}

func PerMinute(n int) redis_rate.Limit {
	if n < 1 {
		n = 1
	}
	return redis_rate.PerMinute(n)
}

func (l *Limiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// only form submissions are throttled
		if c.Request().Method == http.MethodGet {
			return next(c)
		}

		ctx := c.Request().Context()
		key := l.prefix + ":" + c.RealIP()
		res := l.allow(ctx, key)

		h := c.Response().Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit.Rate))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			h.Set("Retry-After", strconv.Itoa(retry))
			logging.FromContext(ctx).Warn("rate_limited", "status", http.StatusTooManyRequests, "key", key)
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
		}
		return next(c)
	}
}

func (l *Limiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if l.redis != nil {
		res, err := l.redis.Allow(ctx, key, l.limit)
		if err == nil {
			return res
		}
		logging.FromContext(ctx).Warn("rate_limiter_redis_failed", "reason", "using local limiter", "error", err)
	}
	return l.fallback.allow(key, l.limit, time.Now())
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu          sync.Mutex
	entries     map[string]*limiterEntry
	lastCleanup time.Time
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entries == nil {
		l.entries = make(map[string]*limiterEntry)
		l.lastCleanup = now
	}
	if now.Sub(l.lastCleanup) > cleanupInterval {
		for k, e := range l.entries {
			if now.Sub(e.lastAccess) > entryTTL {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	perSec := float64(limit.Rate) / limit.Period.Seconds()
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if entry.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / perSec)
	}
	if remaining := int(entry.limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}
