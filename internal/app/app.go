// Package app wires configuration, storage and integrations into a runnable
// storefront server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
	"github.com/Skotchmaster/storefront/internal/view"
)

const janitorInterval = 15 * time.Minute

type App struct {
	Cfg    config.Config
	Log    *slog.Logger
	DB     *gorm.DB
	Echo   *echo.Echo
	Auth   *service.AuthService
	Redis  *redis.Client
	Events mykafka.Publisher

	gormSessions *session.GormStore
	closers      []func() error
}

// New opens every backing service named in cfg. Optional integrations are
// skipped when their address is empty.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.DB = gdb
	a.closers = append(a.closers, func() error { return db.Close(gdb) })

	if err := db.Migrate(ctx, gdb); err != nil {
		a.Close()
		return nil, err
	}

	var store session.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		a.closers = append(a.closers, a.Redis.Close)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		store = session.NewRedisStore(a.Redis)
		log.Info("session_store", "backend", "redis")
	} else {
		a.gormSessions = &session.GormStore{DB: gdb}
		store = a.gormSessions
		log.Info("session_store", "backend", "database")
	}

	if len(cfg.KafkaBrokers) > 0 {
		p := mykafka.NewProducer(cfg.KafkaBrokers)
		a.closers = append(a.closers, p.Close)
		a.Events = p
	} else {
		a.Events = mykafka.NopPublisher{}
	}

	var index service.SearchIndex
	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			a.Close()
			return nil, err
		}
		index = &es.Indexer{Client: client, Index: cfg.ESIndex}
	}

	r := &repo.GormRepo{DB: gdb}
	sessions := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL)
	a.Auth = &service.AuthService{Repo: r, Sessions: sessions, Producer: a.Events, AllowSelfAdmin: cfg.AllowSelfAdmin}
	catalog := &service.CatalogService{Repo: r, Producer: a.Events, Index: index}
	checkout := &service.CheckoutService{Catalog: catalog, Producer: a.Events, Secret: cfg.CheckoutSecret, TTL: cfg.CheckoutTTL}

	renderer, err := view.New()
	if err != nil {
		a.Close()
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = transport.NewValidator()

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(log))
	e.Use(echomw.Secure())

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.SecureCookies
	limiter := ratelimit.New(a.Redis, ratelimit.PerMinute(cfg.LoginRatePerMinute), "ratelimit:auth")

	httpserver.Register(e, &httpserver.Deps{
		Gate:            &auth.Gate{Sessions: sessions, SecureCookie: cfg.SecureCookies},
		AuthHandler:     &httpserver.AuthHTTP{Svc: a.Auth, SecureCookie: cfg.SecureCookies},
		CatalogHandler:  &httpserver.CatalogHTTP{Svc: catalog},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkout},
		APIHandler:      &httpserver.APIHTTP{Svc: catalog},
		HealthHandler:   &httpserver.HealthHTTP{DB: gdb},
		CSRF:            csrf.Middleware(csrfCfg),
		LoginLimiter:    limiter.Middleware,
	})
	a.Echo = e

	return a, nil
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Cfg.HTTPAddr,
		Handler:           a.Echo,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if a.gormSessions != nil {
		go session.RunJanitor(ctx, a.gormSessions, janitorInterval, a.Log)
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.Log.Info("server_stopped")
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close_failed", "error", err)
		}
	}
	a.closers = nil
}
