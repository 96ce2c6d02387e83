// Package server implements the HTTP service launcher: it binds the
// listening socket, runs requests through a fixed-size concurrency pool,
// and drains gracefully on shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apperrors "github.com/zetalabs/teliads/internal/errors"
	"github.com/zetalabs/teliads/internal/logger"
	"github.com/zetalabs/teliads/internal/server/middleware"
)

// Server is an HTTP server backed by Gin with a bounded request pool.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger
}

// New creates a new Server. Routes are registered on the Gin engine;
// the concurrency pool and request logging wrap the whole handler.
func New(cfg Config, log *logger.Logger) *Server {
	// Set Gin mode based on global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, apperrors.New(apperrors.ErrCodeNotFound, "route not found", http.StatusNotFound))
	})

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	// h2c keeps HTTP/2 cleartext working behind proxies that speak it.
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
	}
	var handler http.Handler = h2c.NewHandler(mux, h2s)

	// Outermost: access log. Inside it: the request pool, so queue time
	// shows up in the logged duration.
	handler = middleware.Chain(
		middleware.RequestLogger(log),
		middleware.ConcurrencyLimit(cfg.WorkerThreads),
	)(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a
// goroutine. A bind failure is returned to the caller and must abort
// startup with a non-zero exit.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", map[string]interface{}{
		"addr":           s.httpServer.Addr,
		"worker_threads": s.config.WorkerThreads,
	})

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	// The listener may have been bound to an ephemeral port (port 0).
	s.httpServer.Addr = listener.Addr().String()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return nil
}

// Stop gracefully shuts down the server: the listener closes immediately
// so new connections are refused, then in-flight requests are drained.
// With graceful_timeout unset the drain has no deadline — a stuck request
// can hold shutdown indefinitely, matching the serving policy of never
// killing a request on elapsed time.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx := ctx
	if s.config.GracefulTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, time.Duration(s.config.GracefulTimeout)*time.Second)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the listen address (actual address once started).
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
