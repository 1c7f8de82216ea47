package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/middleware"
	"a11yhub/internal/api/validator"
	"a11yhub/internal/auth"
	"a11yhub/internal/models"
	"a11yhub/internal/services"
	"a11yhub/internal/utils/logger"
)

type AuthHandler struct {
	identity *services.IdentityService
	auth     *auth.Service
	log      *logger.Logger
}

func NewAuthHandler(identity *services.IdentityService, authService *auth.Service) *AuthHandler {
	return &AuthHandler{identity: identity, auth: authService, log: logger.New("AuthHandler")}
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User *models.User `json:"user,omitempty"`
	auth.TokenPair
}

// bindAndValidate binds the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

// Register creates an account holding the default role.
// @Summary Register a new user
// @Description Register a new user; the account receives the default "user" role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 409 {object} map[string]interface{} "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req validator.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, pair, err := h.identity.Register(c.Request().Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, AuthResponse{User: user, TokenPair: pair})
}

// Login exchanges credentials for an access and refresh token pair.
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req validator.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, pair, err := h.identity.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AuthResponse{User: user, TokenPair: pair})
}

// Refresh mints a new pair from the caller's current roles and permissions.
// @Summary Refresh credentials
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RefreshRequest true "Refresh token"
// @Success 200 {object} auth.TokenPair
// @Failure 401 {object} map[string]interface{} "Expired, invalid or revoked refresh token"
// @Failure 503 {object} map[string]interface{} "Role lookup unavailable"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req validator.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes every refresh token of the caller.
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 204 "No content"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.identity.RevokeCredentials(c.Request().Context(), middleware.GetUserID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMe returns the caller with roles and permissions loaded from storage.
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	user, err := h.identity.Profile(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
