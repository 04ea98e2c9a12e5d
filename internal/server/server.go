package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/michaelbrown/llhd-playground/internal/sandbox"
)

// Compiler runs the compile pipeline for one request.
type Compiler interface {
	Compile(ctx context.Context, code string) (sandbox.Output, error)
}

// Options configures a Server.
type Options struct {
	// Root is the directory of static frontend files; empty disables them.
	Root string
	// AccessLog receives one row per request; nil disables it.
	AccessLog *AccessLog
	// MaxBodyBytes caps the size of a compile request body.
	MaxBodyBytes int64
	// ShutdownGrace bounds how long in-flight requests may run on shutdown.
	ShutdownGrace time.Duration
	Logger        *zap.Logger
}

// Server is the HTTP server for the playground.
type Server struct {
	compiler Compiler
	opts     Options
	logger   *zap.Logger
	router   chi.Router
}

// New creates a new Server.
func New(compiler Compiler, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 45 * time.Second
	}
	s := &Server{
		compiler: compiler,
		opts:     opts,
		logger:   opts.Logger,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.opts.AccessLog != nil {
		r.Use(s.opts.AccessLog.Middleware)
	}
	r.Use(middleware.Recoverer)

	r.Post("/compile", s.handleCompile)

	if s.opts.Root != "" {
		r.Handle("/*", staticHandler(s.opts.Root))
	}
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. It then stops
// accepting and returns only once running compiles have finished or the
// grace period has run out.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Starting the server", zap.String("url", "http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("Server stopped")
	return nil
}
