package routes

import (
	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/middleware"
	"a11yhub/internal/auth"
	"a11yhub/internal/handlers"
	"a11yhub/internal/models"
	"a11yhub/internal/repository"
	"a11yhub/internal/services"
	"a11yhub/internal/utils/logger"
)

func permission(p models.PermissionName) auth.Rule {
	return middleware.Permissions(p)
}

// SetupCDNRoutes registers the public delivery routes and the admin script
// upload. Delivery routes are guarded by API key, origin and token.
func SetupCDNRoutes(api *echo.Group, deps *Deps) {
	log := logger.New("cdn_routes")

	var store services.ObjectStore
	if s := handlers.GetScriptStore(); s != nil {
		store = s
	} else {
		log.Warn("no object storage registered; script uploads and content are unavailable")
	}

	h := handlers.NewCDNHandler(services.NewScriptService(deps.DB, store), deps.Signer, deps.Config.Delivery.BaseURL)
	guard := middleware.NewDeliveryGuard(repository.New(deps.DB), deps.Signer, deps.Limiter, deps.Usage)

	cdn := api.Group("/cdn")
	cdn.GET("/loader.js", h.Loader, guard.Require(middleware.DeliveryPolicy{RequireOrigin: true}))
	cdn.GET("/scripts/:id", h.Script, guard.Require(middleware.DeliveryPolicy{RequireToken: true}))
	cdn.POST("/scripts", h.Upload,
		deps.Authenticated(),
		deps.Guard(middleware.Roles(models.RoleAdmin, models.RoleSuperAdmin)),
		deps.Guard(permission(models.PermIntegrationCreate)))

	log.Success("CDN routes initialized successfully")
}
