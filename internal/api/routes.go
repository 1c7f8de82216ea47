package api

import (
	"net/http"

	"a11yhub/internal/api/registry"
	"a11yhub/internal/metrics"
	"a11yhub/internal/routes"

	_ "a11yhub/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	// Health check
	// @Summary Health check
	// @Description Check if the server and its database are reachable
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Failure 503 {object} map[string]string "Database unreachable"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	s.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	// API v1 group
	api := s.echo.Group("/api/v1")

	routes.SetupIntegrationRoutes(api, s.deps)
	routes.SetupCDNRoutes(api, s.deps)

	// Generic admin listings
	registry.RegisterListRoutes(api, s.db, s.deps.Authenticated(), s.deps.Authorizer)
}
