package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/zettel/pkg/observability"
	"github.com/rhuss/zettel/pkg/transport"
)

// Server owns the http.Server, the adapter, and the middleware chain,
// and runs the serve/drain lifecycle.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout time.Duration
	Logger          *slog.Logger

	// AuthMiddleware guards the API surface. Nil leaves the surface
	// open (development only).
	AuthMiddleware transport.Middleware
}

// DefaultServerConfig returns the defaults used when no option
// overrides them.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		MaxBodySize:     1 << 20, // 1 MiB
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithMaxBodySize sets the maximum request body size.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// WithAuthMiddleware guards the API surface with the given middleware,
// typically auth.Middleware over the configured chain.
func WithAuthMiddleware(mw transport.Middleware) ServerOption {
	return func(s *Server) { s.config.AuthMiddleware = mw }
}

// NewServer assembles the adapter and middleware chain for the given
// services. Outermost first: recovery, request ID, access logging,
// metrics, then authentication in front of the routes.
func NewServer(notes transport.NoteAPI, users transport.UserAPI, health transport.HealthChecker, opts ...ServerOption) *Server {
	s := &Server{
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.adapter = NewAdapter(notes, users, health, Config{
		Addr:        s.config.Addr,
		MaxBodySize: s.config.MaxBodySize,
	})

	middlewares := []transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(s.logger),
		observability.MetricsMiddleware,
	}
	if s.config.AuthMiddleware != nil {
		middlewares = append(middlewares, s.config.AuthMiddleware)
	}

	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: transport.Chain(middlewares...)(s.adapter.Handler()),
	}

	return s
}

// Handler returns the fully wrapped handler. Used for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server on the configured address and blocks
// until SIGINT or SIGTERM, then drains in-flight requests within the
// shutdown timeout.
func (s *Server) ListenAndServe() error {
	return s.run(s.httpServer.ListenAndServe)
}

// ServeOn starts the server on the given listener. Used for testing.
func (s *Server) ServeOn(ln net.Listener) error {
	return s.run(func() error { return s.httpServer.Serve(ln) })
}

// run executes the serve function in the background and blocks until it
// fails or a termination signal arrives, then shuts down gracefully.
func (s *Server) run(serve func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		if err := serve(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
