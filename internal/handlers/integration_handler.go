package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/middleware"
	"a11yhub/internal/api/validator"
	"a11yhub/internal/auth"
	"a11yhub/internal/models"
	"a11yhub/internal/services"
)

// IntegrationHandler serves tenant integrations. Owners manage their own;
// callers holding the matching integration permission may act on any.
type IntegrationHandler struct {
	integrations *services.IntegrationService
	authorizer   *auth.Authorizer
}

func NewIntegrationHandler(integrations *services.IntegrationService, authorizer *auth.Authorizer) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations, authorizer: authorizer}
}

// actor describes the caller. A denied permission only drops the privilege;
// lookup failures abort the request.
func (h *IntegrationHandler) actor(c echo.Context, perm models.PermissionName) (services.Actor, error) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return services.Actor{}, auth.AuthenticationRequired("missing credential")
	}

	actor := services.Actor{UserID: principal.ID}
	_, err := h.authorizer.Authorize(c.Request().Context(), principal, middleware.Permissions(perm))
	switch {
	case err == nil:
		actor.Privileged = true
	case auth.KindOf(err) == auth.KindAuthorizationDenied:
	default:
		return services.Actor{}, err
	}
	return actor, nil
}

func toInput(req validator.IntegrationRequest) services.IntegrationInput {
	return services.IntegrationInput{
		Name:           req.Name,
		Domain:         req.Domain,
		AllowedDomains: req.AllowedDomains,
		Settings:       req.Settings,
	}
}

// Create
// @Summary Register a website
// @Tags integrations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body validator.IntegrationRequest true "Integration"
// @Success 201 {object} models.Integration
// @Router /integrations [post]
func (h *IntegrationHandler) Create(c echo.Context) error {
	var req validator.IntegrationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	integration, err := h.integrations.Create(c.Request().Context(), middleware.GetUserID(c), toInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, integration)
}

// List
// @Summary List integrations
// @Tags integrations
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Integration
// @Router /integrations [get]
func (h *IntegrationHandler) List(c echo.Context) error {
	actor, err := h.actor(c, models.PermIntegrationRead)
	if err != nil {
		return err
	}
	integrations, err := h.integrations.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, integrations)
}

// Get
// @Summary Get an integration
// @Tags integrations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} models.Integration
// @Failure 404 {object} map[string]interface{} "Not found"
// @Router /integrations/{id} [get]
func (h *IntegrationHandler) Get(c echo.Context) error {
	actor, err := h.actor(c, models.PermIntegrationRead)
	if err != nil {
		return err
	}
	integration, err := h.integrations.Get(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, integration)
}

// Update
// @Summary Update an integration
// @Description Changing the primary domain clears the verification flag
// @Tags integrations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Integration ID"
// @Param request body validator.IntegrationRequest true "Integration"
// @Success 200 {object} models.Integration
// @Router /integrations/{id} [put]
func (h *IntegrationHandler) Update(c echo.Context) error {
	var req validator.IntegrationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actor, err := h.actor(c, models.PermIntegrationUpdate)
	if err != nil {
		return err
	}
	integration, err := h.integrations.Update(c.Request().Context(), c.Param("id"), actor, toInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, integration)
}

// SetStatus activates, suspends or disables an integration.
// @Summary Change integration status
// @Tags integrations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Integration ID"
// @Param request body validator.IntegrationStatusRequest true "Status"
// @Success 200 {object} models.Integration
// @Router /integrations/{id}/status [put]
func (h *IntegrationHandler) SetStatus(c echo.Context) error {
	var req validator.IntegrationStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	integration, err := h.integrations.SetStatus(c.Request().Context(), c.Param("id"), models.IntegrationStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, integration)
}

// Verify
// @Summary Mark the primary domain as verified
// @Tags integrations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Integration ID"
// @Success 200 {object} models.Integration
// @Router /integrations/{id}/verify [post]
func (h *IntegrationHandler) Verify(c echo.Context) error {
	actor, err := h.actor(c, models.PermIntegrationUpdate)
	if err != nil {
		return err
	}
	integration, err := h.integrations.MarkDomainVerified(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, integration)
}

// Delete
// @Summary Delete an integration
// @Tags integrations
// @Security BearerAuth
// @Param id path string true "Integration ID"
// @Success 204 "No content"
// @Router /integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c echo.Context) error {
	actor, err := h.actor(c, models.PermIntegrationDelete)
	if err != nil {
		return err
	}
	if err := h.integrations.Delete(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
