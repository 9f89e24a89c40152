// internal/httpcontroller/server.go
package httpcontroller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/stressnet-go/internal/classifier"
	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/logger"
	"github.com/tphakala/stressnet-go/internal/observability"
)

// Predictor classifies uploaded audio. *classifier.Classifier implements it.
type Predictor interface {
	Classify(ctx context.Context, audio []byte, format string) (*classifier.Prediction, error)
	Backend() string
	Formats() []string
}

// Server encapsulates Echo server and related configurations.
type Server struct {
	Echo      *echo.Echo
	Settings  *conf.Settings
	Predictor Predictor
	Metrics   *observability.Metrics // nil when metrics are disabled

	results   *resultCache
	prober    *ImageProber
	startTime time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithProbeTransport sets the transport used for image reachability probes.
func WithProbeTransport(transport http.RoundTripper) Option {
	return func(s *Server) {
		s.prober = NewImageProber(transport, s.Settings.WebServer.ProbeTimeout)
	}
}

// New initializes a new HTTP server serving predictions from predictor.
func New(settings *conf.Settings, predictor Predictor, metrics *observability.Metrics, opts ...Option) *Server {
	configureDefaultSettings(settings)

	s := &Server{
		Echo:      echo.New(),
		Settings:  settings,
		Predictor: predictor,
		Metrics:   metrics,
		results:   newResultCache(settings.WebServer.CacheTTL),
		startTime: time.Now(),
	}
	s.prober = NewImageProber(nil, settings.WebServer.ProbeTimeout)

	for _, opt := range opts {
		opt(s)
	}

	s.initializeServer()
	return s
}

// initializeServer configures and initializes the server.
func (s *Server) initializeServer() {
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Logger.SetOutput(io.Discard) // request logging goes through LoggingMiddleware
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	s.setupTemplateRenderer()
	s.configureMiddleware()
	s.initRoutes()
}

// configureDefaultSettings sets default values for server settings.
func configureDefaultSettings(settings *conf.Settings) {
	if settings.WebServer.Port == "" {
		settings.WebServer.Port = "8080"
	}
	if settings.WebServer.MaxUploadSize <= 0 {
		settings.WebServer.MaxUploadSize = conf.DefaultMaxUploadSize
	}
	if settings.WebServer.ProbeTimeout <= 0 {
		settings.WebServer.ProbeTimeout = conf.DefaultProbeTimeout
	}
}

// Start listens on the configured port and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	addr := ":" + s.Settings.WebServer.Port
	GetLogger().Info("HTTP server starting",
		logger.String("address", addr),
		logger.String("backend", s.Predictor.Backend()),
		logger.Bool("metrics", s.Metrics != nil))

	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	GetLogger().Info("HTTP server shutting down")
	return s.Echo.Shutdown(ctx)
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Echo.ServeHTTP(w, r)
}
