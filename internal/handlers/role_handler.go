package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/validator"
	"a11yhub/internal/services"
)

type RoleHandler struct {
	roles *services.RoleService
}

func NewRoleHandler(roles *services.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// ListRoles
// @Summary List roles with their permissions
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Role
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c echo.Context) error {
	roles, err := h.roles.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

// CreateRole
// @Summary Create a role
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body validator.CreateRoleRequest true "Role"
// @Success 201 {object} models.Role
// @Failure 409 {object} map[string]interface{} "Role exists"
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c echo.Context) error {
	var req validator.CreateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.roles.CreateRole(c.Request().Context(), req.Name, req.Description, req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// AssignPermissions
// @Summary Grant permissions to a role
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param request body validator.AssignPermissionsRequest true "Permissions"
// @Success 200 {object} models.Role
// @Failure 400 {object} map[string]interface{} "Unknown permission name"
// @Router /roles/{id}/permissions [post]
func (h *RoleHandler) AssignPermissions(c echo.Context) error {
	var req validator.AssignPermissionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := h.roles.AssignPermissions(c.Request().Context(), c.Param("id"), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// CreatePermission stores an enumerated permission.
// @Summary Create a permission
// @Tags permissions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body validator.CreatePermissionRequest true "Permission"
// @Success 201 {object} models.Permission
// @Success 200 {object} models.Permission "Already present"
// @Failure 400 {object} map[string]interface{} "Name outside the enumeration"
// @Router /permissions [post]
func (h *RoleHandler) CreatePermission(c echo.Context) error {
	var req validator.CreatePermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	perm, created, err := h.roles.EnsurePermission(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, perm)
}

// ListPermissions
// @Summary List permissions
// @Tags permissions
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Permission
// @Router /permissions [get]
func (h *RoleHandler) ListPermissions(c echo.Context) error {
	perms, err := h.roles.ListPermissions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perms)
}
