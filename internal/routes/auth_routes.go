package routes

import (
	"github.com/labstack/echo/v4"

	"a11yhub/internal/auth"
	"a11yhub/internal/handlers"
	"a11yhub/internal/models"
	"a11yhub/internal/services"
	"a11yhub/internal/utils/logger"
)

// SetupAuthRoutes registers authentication, user administration and the
// role and permission routes.
func SetupAuthRoutes(e *echo.Echo, deps *Deps) {
	log := logger.New("auth_routes")

	identity := services.NewIdentityService(deps.DB, deps.Auth)
	authHandler := handlers.NewAuthHandler(identity, deps.Auth)
	userHandler := handlers.NewUserHandler(identity)
	roleHandler := handlers.NewRoleHandler(services.NewRoleService(deps.DB))

	base := e.Group("/api/v1")

	// Public routes (no auth required)
	authGroup := base.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout, deps.Authenticated())

	users := base.Group("/users", deps.Authenticated())
	users.GET("/me", authHandler.GetMe)
	users.POST("/:id/roles", userHandler.AssignRole,
		deps.Guard(auth.Rule{Permissions: []models.PermissionName{models.PermRoleAssign}, Fresh: true}))
	users.DELETE("/:id/roles/:role", userHandler.RevokeRole,
		deps.Guard(auth.Rule{Permissions: []models.PermissionName{models.PermRoleAssign}, Fresh: true}))
	users.DELETE("/:id", userHandler.DeleteUser,
		deps.Guard(auth.Rule{Permissions: []models.PermissionName{models.PermUserDelete}, Fresh: true}))

	roles := base.Group("/roles", deps.Authenticated())
	roles.GET("", roleHandler.ListRoles, deps.Guard(auth.Rule{
		Roles:       []models.RoleName{models.RoleAdmin, models.RoleSuperAdmin},
		Permissions: []models.PermissionName{models.PermRoleRead},
	}))
	roles.POST("", roleHandler.CreateRole,
		deps.Guard(auth.Rule{Permissions: []models.PermissionName{models.PermRoleCreate}}))
	roles.POST("/:id/permissions", roleHandler.AssignPermissions, deps.Guard(auth.Rule{
		Permissions: []models.PermissionName{models.PermRoleAssign, models.PermPermissionAssign},
		Fresh:       true,
	}))

	permissions := base.Group("/permissions", deps.Authenticated())
	permissions.GET("", roleHandler.ListPermissions,
		deps.Guard(auth.Rule{Permissions: []models.PermissionName{models.PermPermissionRead}}))
	permissions.POST("", roleHandler.CreatePermission,
		deps.Guard(auth.Rule{Permissions: []models.PermissionName{models.PermPermissionAssign}, Fresh: true}))

	log.Success("Auth routes initialized successfully")
}
