// httpcontroller/routes.go
package httpcontroller

import "github.com/labstack/echo/v4"

// initRoutes initializes the routes for the server.
func (s *Server) initRoutes() {
	// Upload page
	s.Echo.GET("/", s.indexHandler)
	s.Echo.POST("/", s.uploadHandler)

	// JSON API
	api := s.Echo.Group("/api/v1")
	api.POST("/predict", s.predictHandler)
	api.GET("/classes", s.classesHandler)

	// Operations
	s.Echo.GET("/health", s.healthHandler)
	if s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}
