// Package server wires the recognition pipeline behind an HTTP API with
// config hot reload and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/inkscan/inkscan/internal/api"
	"github.com/inkscan/inkscan/internal/config"
	"github.com/inkscan/inkscan/internal/langdetect"
	"github.com/inkscan/inkscan/internal/ocr"
	"github.com/inkscan/inkscan/internal/preprocess"
	"github.com/inkscan/inkscan/internal/providers"
	"github.com/inkscan/inkscan/internal/server/endpoints"
)

// Server is the main inkscan HTTP server. It builds the provider stack
// from configuration and rebuilds it whenever the config file changes,
// so a rotated API key or new rate limit takes effect without a restart.
type Server struct {
	httpServer       *http.Server
	configMgr        *config.Manager
	logger           *slog.Logger
	endpointRegistry *api.Registry

	// mu guards the rebuildable state below. Handlers read it through the
	// endpoints.Deps accessors on every request.
	mu      sync.RWMutex
	cfg     *config.Config
	service *ocr.Service
	limiter *providers.RateLimiter
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	if err := s.rebuild(cfg.ConfigManager.Get()); err != nil {
		return nil, err
	}

	cfg.ConfigManager.OnChange(func(c *config.Config) {
		if err := s.rebuild(c); err != nil {
			s.logger.Error("config reload failed, keeping previous pipeline", "error", err)
			return
		}
		s.logger.Info("pipeline rebuilt from config")
	})

	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(s) {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// rebuild constructs the provider stack and pipeline from c and swaps it
// in atomically.
func (s *Server) rebuild(c *config.Config) error {
	remote := providers.NewRemoteClient(providers.RemoteConfig{
		APIKey:    config.ResolveEnvVars(c.Remote.APIKey),
		BaseURL:   c.Remote.BaseURL,
		Timeout:   time.Duration(c.Remote.TimeoutSeconds) * time.Second,
		RateLimit: c.Remote.RateLimit,
		Retries:   c.Remote.MaxRetries,
	})
	local := providers.NewTesseractClient(providers.TesseractConfig{
		DataPath: c.Local.DataPath,
	})

	service, err := ocr.New(ocr.Config{
		Remote:   remote,
		Local:    local,
		Detector: langdetect.New(remote, s.logger),
		Preprocessor: &preprocess.Preprocessor{
			MaxDimension: c.Preprocess.MaxDimension,
			JPEGQuality:  c.Preprocess.JPEGQuality,
		},
		Logger: s.logger,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	s.mu.Lock()
	s.cfg = c
	s.service = service
	s.limiter = providers.NewRateLimiter(remote.RequestsPerSecond())
	s.mu.Unlock()
	return nil
}

// Service returns the current recognition pipeline.
func (s *Server) Service() *ocr.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service
}

// Limiter returns the rate limiter fronting the remote provider.
func (s *Server) Limiter() *providers.RateLimiter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limiter
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Logger returns the server's structured logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

var _ endpoints.Deps = (*Server)(nil)

// Start starts the server and blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.configMgr.WatchConfig()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
