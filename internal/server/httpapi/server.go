// Package httpapi exposes the account services over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// AuthService is the account surface the auth routes call.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// UserService is the directory surface the user routes call.
type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, id int64, in services.UpdateInput) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// TokenVerifier validates bearer access tokens.
type TokenVerifier interface {
	Verify(token string, class auth.TokenClass) (*auth.Claims, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	APIPrefix       string
	H2C             bool
	ShutdownTimeout time.Duration
}

// Server is the gin-based HTTP API.
type Server struct {
	httpServer      *http.Server
	engine          *gin.Engine
	logger          logging.Logger
	shutdownTimeout time.Duration

	auth     AuthService
	users    UserService
	verifier TokenVerifier
	health   HealthChecker
}

// NewServer constructs a Server and registers its middleware and routes.
func NewServer(cfg Config, as AuthService, us UserService, v TokenVerifier, hc HealthChecker, l logging.Logger) *Server {
	s := &Server{
		engine:          gin.New(),
		logger:          l.With("module", "http_server"),
		shutdownTimeout: cfg.ShutdownTimeout,
		auth:            as,
		users:           us,
		verifier:        v,
		health:          hc,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	s.engine.Use(RequestID(), RequestLogger(s.logger), Recovery(s.logger))
	s.routes(cfg.APIPrefix)

	var handler http.Handler = s.engine
	if cfg.H2C {
		handler = h2c.NewHandler(s.engine, &http2.Server{IdleTimeout: 120 * time.Second})
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler, including the h2c wrapper if enabled.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully, waiting up to the shutdown timeout for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
