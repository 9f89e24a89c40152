package httpcontroller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/stressnet-go/internal/logger"
)

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.RequestIDMiddleware())
	s.Echo.Use(s.LoggingMiddleware())
	s.Echo.Use(s.MetricsMiddleware())
	s.Echo.Use(s.BodyLimitMiddleware())
	s.Echo.Use(s.SecurityHeadersMiddleware())
}

// RequestIDMiddleware assigns each request a UUID, echoes it in the
// X-Request-ID response header and attaches it to the request context as the
// logging trace ID. A client supplied X-Request-ID is kept.
func (s *Server) RequestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, requestID string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), requestID)))
		},
	})
}

// BodyLimitMiddleware rejects request bodies larger than the configured
// upload size with 413.
func (s *Server) BodyLimitMiddleware() echo.MiddlewareFunc {
	return middleware.BodyLimit(fmt.Sprintf("%dM", s.Settings.WebServer.MaxUploadSize))
}

// SecurityHeadersMiddleware sets conservative response headers. Images are
// hot-linked from third-party hosts, so img-src stays open.
func (s *Server) SecurityHeadersMiddleware() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ContentSecurityPolicy: "default-src 'self'; img-src https: data:; media-src data:; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'",
	})
}

// MetricsMiddleware records request counts and latencies by route pattern.
func (s *Server) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if s.Metrics == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := responseStatus(c, err)
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			s.Metrics.HTTP.RecordRequest(c.Request().Method, path, status, time.Since(start))
			return err
		}
	}
}

// LoggingMiddleware logs completed requests with their latency, status and
// request ID.
func (s *Server) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			res := c.Response()
			status := responseStatus(c, err)

			log := GetLogger().WithContext(req.Context())
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("path", req.URL.Path),
				logger.Int("status", status),
				logger.String("ip", c.RealIP()),
				logger.Int64("latency_ms", time.Since(start).Milliseconds()),
				logger.Int64("bytes_out", res.Size),
			}

			switch {
			case err != nil && status >= 500:
				log.Error("HTTP request", append(fields, logger.Error(err))...)
			case status >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Debug("HTTP request", fields...)
			}
			return err
		}
	}
}

// responseStatus returns the status the client will see. Handler errors are
// turned into responses by the error handler after the middleware chain runs.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
