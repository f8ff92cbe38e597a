package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"mark1-ai/internal/infra/config"
	"mark1-ai/internal/infra/middleware"
)

// Server is the HTTP front of the service: JSON API plus optional static
// file serving for the web UI.
type Server struct {
	server    *http.Server
	logger    *slog.Logger
	cfg       config.Server
	boundAddr string

	// Lifecycle for the rate limiter cleanup goroutine.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer assembles the mux and middleware chain around the handler.
func NewServer(cfg config.Server, handler *Handler, logger *slog.Logger) *Server {
	s := &Server{
		logger: logger,
		cfg:    cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", handler.handleSearch)
	mux.HandleFunc("/api/models", handler.handleModels)
	mux.HandleFunc("/api/health", handler.handleHealth)

	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	var h http.Handler = mux
	if cfg.RateLimit.Enabled {
		h = middleware.RateLimit(s.ctx, middleware.RateLimitConfig{
			RequestsPerMin: cfg.RateLimit.RequestsPerMin,
			BurstSize:      cfg.RateLimit.Burst,
			TrustedProxies: cfg.RateLimit.TrustedProxies,
		})(h)
	}
	h = middleware.Recovery(logger)(h)
	h = middleware.CORS(cfg.CORS.AllowedOrigins)(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.RequestID(h)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	return s
}

// Start begins serving. Non-blocking (serves in a goroutine).
func (s *Server) Start(ctx context.Context) error {
	s.server.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.boundAddr = ln.Addr().String()

	go func() {
		s.logger.Info("http server started", "addr", s.boundAddr)
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the actual bound address, useful when cfg.Addr uses port 0.
func (s *Server) Addr() string { return s.boundAddr }

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	return s.server.Shutdown(ctx)
}
