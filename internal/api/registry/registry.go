package registry

import (
	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/controllers"
	"a11yhub/internal/api/middleware"
	"a11yhub/internal/auth"
	"a11yhub/internal/models"
	"a11yhub/internal/services"

	"gorm.io/gorm"
)

// RegisterListRoutes registers the generic admin read routes behind
// authenticate.
func RegisterListRoutes(g *echo.Group, db *gorm.DB, authenticate echo.MiddlewareFunc, authorizer *auth.Authorizer) {
	scriptService := services.NewBaseService(db, models.ScriptAsset{}, "name", "version", "type", "is_latest", "is_active")
	scriptController := controllers.NewBaseController(scriptService)

	adminOnly := middleware.Guard(authorizer, middleware.Roles(models.RoleAdmin, models.RoleSuperAdmin))
	canRead := middleware.Guard(authorizer, middleware.Permissions(models.PermIntegrationRead))

	// @Summary List scripts
	// @Description Paginated script versions; filter by name, version, type, is_latest or is_active
	// @Produce json
	// @Param page query int false "Page"
	// @Param limit query int false "Page size, at most 100"
	// @Success 200 {object} map[string]interface{}
	// @Failure 403 {object} map[string]interface{} "Forbidden"
	// @Router /api/v1/cdn/scripts [get]
	g.GET("/cdn/scripts", scriptController.List, authenticate, adminOnly, canRead)

	// @Summary Get script
	// @Produce json
	// @Param id path string true "Script ID"
	// @Success 200 {object} models.ScriptAsset
	// @Failure 404 {object} map[string]interface{} "Not found"
	// @Router /api/v1/scripts/{id} [get]
	scriptController.RegisterRoutes(g, "/scripts", authenticate, adminOnly, canRead)

	integrationService := services.NewBaseService(db, models.Integration{}, "status", "user_id", "domain", "is_domain_verified")
	integrationController := controllers.NewBaseController(integrationService, "User")

	// @Summary Browse all integrations
	// @Description Cross-tenant listing for operators; filter by status, user_id, domain or is_domain_verified
	// @Produce json
	// @Success 200 {object} map[string]interface{}
	// @Router /api/v1/admin/integrations [get]
	integrationController.RegisterRoutes(g, "/admin/integrations", authenticate, adminOnly, canRead)
}
