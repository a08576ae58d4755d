// Package server wires configuration, storage, services and the HTTP
// surface together and runs them until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/config"
	"github.com/dmitrijs2005/accountd/internal/server/httpapi"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/gin-gonic/gin"
)

// DemoUsers are created at startup when seed_demo_data is enabled.
var DemoUsers = []services.SeedUser{
	{Name: "Tomas Lopez", Email: "tomas_lopez@example.com", Age: 30, Password: "password123"},
	{Name: "Juan Peralta", Email: "juan_peralta@example.com", Age: 25, Password: "password123"},
}

// App wires the store, services and HTTP server together.
type App struct {
	config      *config.Config
	logger      logging.Logger
	store       repomanager.RepositoryManager
	authService *services.AuthService
	httpServer  *httpapi.Server
}

// NewApp builds every component described by c. The caller owns the
// returned App and must call Close.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	app, err := newApp(c, logger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, store repomanager.RepositoryManager) (*App, error) {
	hasher, err := password.New(password.Config{Algorithm: c.PasswordAlgorithm, BcryptCost: c.BcryptCost})
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  c.SecretKey,
		RefreshSecret: c.RefreshSecretKey,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	as, err := services.NewAuthService(store, hasher, issuer, logger)
	if err != nil {
		return nil, err
	}
	us := services.NewUserService(store, hasher, logger)

	if c.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	hs := httpapi.NewServer(httpapi.Config{
		Addr:            c.HTTPAddr,
		APIPrefix:       c.APIPrefix,
		H2C:             c.HTTPH2C,
		ShutdownTimeout: c.ShutdownTimeout,
	}, as, us, issuer, store, logger)

	return &App{
		config:      c,
		logger:      logger,
		store:       store,
		authService: as,
		httpServer:  hs,
	}, nil
}

func openStore(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageDriver {
	case config.StorageDriverMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StorageDriverPostgres:
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		return repomanager.NewPostgresRepositoryManager(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run migrates the schema, seeds demo data if asked to, and serves until ctx
// is canceled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	if err := app.store.RunMigrations(ctx); err != nil {
		return err
	}
	if app.config.SeedDemoData {
		if err := app.authService.Seed(ctx, DemoUsers); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server stopped", "error", err)
			runErr = err
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.purgeExpiredTokens(ctx, app.config.TokenCleanupInterval)
	}()

	wg.Wait()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return runErr
}

func (app *App) purgeExpiredTokens(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.authService.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired refresh tokens removed", "count", n)
			}
		}
	}
}

// Close releases the store.
func (app *App) Close() error {
	return app.store.Close()
}
