package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/middleware"
	"a11yhub/internal/api/validator"
	"a11yhub/internal/services"
)

// UserHandler serves user administration. Every route behind it is guarded
// by a fresh rule.
type UserHandler struct {
	identity *services.IdentityService
}

func NewUserHandler(identity *services.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// AssignRole
// @Summary Assign a role to a user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body validator.AssignRoleRequest true "Role"
// @Success 200 {object} models.User
// @Failure 403 {object} map[string]interface{} "Missing role:assign"
// @Failure 404 {object} map[string]interface{} "User or role not found"
// @Router /users/{id}/roles [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	var req validator.AssignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.identity.AssignRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// RevokeRole
// @Summary Revoke a role from a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param role path string true "Role name"
// @Success 204 "No content"
// @Failure 409 {object} map[string]interface{} "Last role of the user"
// @Router /users/{id}/roles/{role} [delete]
func (h *UserHandler) RevokeRole(c echo.Context) error {
	if err := h.identity.RevokeRole(c.Request().Context(), c.Param("id"), c.Param("role")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser
// @Summary Delete a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204 "No content"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if id == middleware.GetUserID(c) {
		return echo.NewHTTPError(http.StatusConflict, "cannot delete the calling user")
	}
	if err := h.identity.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
