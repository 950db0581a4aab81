// Package app wires the authentication service together and owns its
// lifecycle: config, stores, services, HTTP server, graceful shutdown.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	httpapi "github.com/fernwood-health/apothecary/internal/auth/http"
	"github.com/fernwood-health/apothecary/internal/auth/service"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	redisdriver "github.com/fernwood-health/apothecary/internal/auth/store/drivers/redis"
	"github.com/fernwood-health/apothecary/internal/auth/store/drivers/sqlite"
	"github.com/fernwood-health/apothecary/pkg/cookiex"
	"github.com/fernwood-health/apothecary/pkg/cryptox"
	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
	"github.com/fernwood-health/apothecary/pkg/slogx"

	memorydriver "github.com/fernwood-health/apothecary/internal/auth/store/drivers/memory"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      *sqlite.Store
	codes   store.VerificationCodes
	redis   *goredis.Client // nil unless the redis code store is selected
	codec   *sessiontoken.Codec
	cookies *cookiex.Manager

	// Services
	loginService        *service.LoginService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "apothecary-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initTokenCodec(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCodeStore(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initTokenCodec() error {
	secret := app.cfg.TokenSecret
	if secret == "" {
		if app.cfg.Env != "dev" {
			return fmt.Errorf("AUTH_TOKEN_SECRET is required outside dev")
		}
		// Dev convenience: a random per-process secret. Sessions do not
		// survive a restart.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		secret = hex.EncodeToString(buf)
		app.logger.Warn("AUTH_TOKEN_SECRET not set, using a random per-process secret")
	}

	app.codec = sessiontoken.NewCodec([]byte(secret), app.cfg.Issuer)
	app.cookies = cookiex.NewManager(cookiex.Config{
		Name:        app.cfg.CookieName,
		Domain:      app.cfg.CookieDomain,
		TTL:         app.cfg.TokenTTL,
		Secure:      app.cfg.CookieSecure,
		LegacyNames: app.cfg.LegacyNames,
		LegacyPaths: app.cfg.LegacyPaths,
	})
	return nil
}

// initDatabase initializes the user database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCodeStore() error {
	switch app.cfg.CodeStore {
	case "redis":
		app.redis = goredis.NewClient(&goredis.Options{Addr: app.cfg.RedisAddr})
		app.codes = redisdriver.NewCodes(app.redis)
		app.logger.Info("verification code store: redis", "addr", app.cfg.RedisAddr)
	case "memory", "":
		app.codes = memorydriver.NewCodes()
		app.logger.Info("verification code store: memory")
	default:
		return fmt.Errorf("unknown code store driver %q", app.cfg.CodeStore)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	twoFactor := &service.TwoFactorService{
		Codes:           app.codes,
		Logger:          app.logger,
		CodeTTL:         app.cfg.CodeTTL,
		MaxAttempts:     app.cfg.CodeMaxAttempts,
		EmergencySecret: app.cfg.EmergencyCodeSecret,
	}
	if app.cfg.EmergencyCodeSecret != "" {
		app.logger.Warn("emergency verification code is enabled")
	}

	app.loginService = &service.LoginService{
		Credentials: &service.CredentialService{Users: app.db.Users()},
		TwoFactor:   twoFactor,
		Mailer:      &service.LogMailer{Logger: app.logger},
		Users:       app.db.Users(),
		Codec:       app.codec,
		Logger:      app.logger,
		Issuer:      app.cfg.Issuer,
		TokenTTL:    app.cfg.TokenTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.codes,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		app.cookies,
		BuildVersion,
		app.logger,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	router.Metrics = httpapi.NewMetrics(registry)
	router.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	router.LoginService = app.loginService
	router.Pingers = app.pingers()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) pingers() map[string]store.Pinger {
	out := map[string]store.Pinger{"database": app.db}
	if p, ok := app.codes.(store.Pinger); ok {
		out["codes"] = p
	}
	return out
}
