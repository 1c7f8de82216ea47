package routes

import (
	"github.com/labstack/echo/v4"

	"a11yhub/internal/handlers"
	"a11yhub/internal/models"
	"a11yhub/internal/services"
)

func SetupIntegrationRoutes(api *echo.Group, deps *Deps) {
	h := handlers.NewIntegrationHandler(services.NewIntegrationService(deps.DB), deps.Authorizer)

	g := api.Group("/integrations", deps.Authenticated())
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/verify", h.Verify)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/status", h.SetStatus, deps.Guard(permission(models.PermIntegrationUpdate)))
}
