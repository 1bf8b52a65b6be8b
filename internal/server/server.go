// Package server exposes an AsyncIDGenerator over HTTP.
//
// Routes:
//
//	GET /v1/id                 one ID, {"id":"..."}
//	GET /v1/ids?count=N        N IDs, {"ids":["...", ...]}
//	GET /v1/ids/:id            decompose an ID
//	GET /metrics               generator counters in Prometheus text format
//	GET /health                503 while the last generation failed fatally
//
// IDs are rendered as decimal strings unless ?format= names another encoding.
//
// Example curl commands:
//
//	curl http://localhost:8080/v1/id
//	curl 'http://localhost:8080/v1/ids?count=5&format=base62'
//	curl http://localhost:8080/v1/ids/1234567890123456789
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sxyafiq/snowflake/v2"
)

// Options tunes a Server. Zero values select the defaults noted on each field.
type Options struct {
	// MaxBatch caps ?count on /v1/ids. Default: 4096
	MaxBatch int
	// ShutdownTimeout bounds the graceful drain once the context is done.
	// Default: 5 seconds
	ShutdownTimeout time.Duration
	// Debug includes error text in error response bodies.
	Debug bool
}

// Server exposes one AsyncIDGenerator over HTTP.
type Server struct {
	gen    *snowflake.AsyncIDGenerator
	logger *zap.Logger
	opts   Options
	router *httprouter.Router

	// failing is set by a fatal generation error and cleared by the next
	// successful one.
	failing atomic.Bool
	lastErr atomic.Value // string
}

// New registers the routes for gen. A nil logger discards log output.
func New(gen *snowflake.AsyncIDGenerator, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 4096
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{gen: gen, logger: logger, opts: opts, router: httprouter.New()}
	s.router.GET("/v1/id", s.wrap(s.handleID))
	s.router.GET("/v1/ids", s.wrap(s.handleIDs))
	s.router.GET("/v1/ids/:id", s.wrap(s.handleInspect))
	s.router.GET("/metrics", s.handleMetrics)
	s.router.GET("/health", s.handleHealth)
	s.router.NotFound = s.notFound()
	return s
}

// Handler returns the routed handler, for use with httptest or a custom
// http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then drains in-flight
// requests for at most ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.Stringer("addr", lis.Addr()))
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// observe records the outcome of a generation for /health.
func (s *Server) observe(err error) {
	if err == nil {
		if s.failing.CompareAndSwap(true, false) {
			s.logger.Info("generator recovered")
		}
		return
	}
	if snowflake.IsFatal(err) {
		s.failing.Store(true)
		s.lastErr.Store(err.Error())
	}
}

// statusOf maps a generation error onto an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case snowflake.IsFatal(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
