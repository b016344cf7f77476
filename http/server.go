// Package http serves the classification API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is the HTTP front of the service.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Timeout        Duration `yaml:"timeout"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Duration reads values such as "30s" from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultServerConfig listens on 5001 and allows any origin.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           5001,
		Timeout:        Duration(30 * time.Second),
		MaxBodyBytes:   10 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer wraps the handler's routes in the middleware chain.
func NewServer(config ServerConfig, h *Handler, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      Routes(config, h, logger),
			ReadTimeout:  time.Duration(config.Timeout),
			WriteTimeout: time.Duration(config.Timeout),
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Routes returns the fully wrapped handler. Tests use it directly.
func Routes(config ServerConfig, h *Handler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)

	chain := Chain(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger, h.Metrics),
		CORSMiddleware(config.AllowedOrigins),
		RequestSizeMiddleware(config.MaxBodyBytes),
	)
	return chain(mux)
}

// Start blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests for up to five seconds.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
