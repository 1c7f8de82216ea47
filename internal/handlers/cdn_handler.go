package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/api/middleware"
	"a11yhub/internal/api/validator"
	"a11yhub/internal/delivery"
	"a11yhub/internal/models"
	"a11yhub/internal/services"
	"a11yhub/internal/utils/logger"
)

// maxScriptSize bounds an uploaded widget script.
const maxScriptSize = 5 << 20

// CDNHandler serves the widget loader and script content to embedding sites
// and script uploads to administrators.
type CDNHandler struct {
	scripts *services.ScriptService
	signer  *delivery.Signer
	baseURL string
	log     *logger.Logger
}

func NewCDNHandler(scripts *services.ScriptService, signer *delivery.Signer, baseURL string) *CDNHandler {
	return &CDNHandler{
		scripts: scripts,
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.New("CDNHandler"),
	}
}

// Loader returns the bootstrap script for the integration admitted by the
// delivery guard, embedding a fresh delivery token.
// @Summary Widget loader
// @Tags cdn
// @Produce application/javascript
// @Param apiKey query string true "Integration API key"
// @Success 200 {string} string "Loader JavaScript"
// @Failure 401 {object} map[string]interface{} "Unknown API key"
// @Failure 403 {object} map[string]interface{} "Origin not authorized"
// @Failure 404 {object} map[string]interface{} "No core script published"
// @Router /cdn/loader.js [get]
func (h *CDNHandler) Loader(c echo.Context) error {
	integration := middleware.IntegrationFrom(c)
	if integration == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "integration not resolved")
	}

	script, err := h.scripts.Latest(c.Request().Context(), models.ScriptTypeCore)
	if err != nil {
		return err
	}

	token, err := h.signer.Sign(integration.ID)
	if err != nil {
		return h.log.Error("failed to sign delivery token", err)
	}

	body, err := h.scripts.RenderLoader(services.LoaderInput{
		Integration: integration,
		Script:      script,
		Token:       token,
		BaseURL:     h.baseURL,
	})
	if err != nil {
		return h.log.Error("failed to render loader", err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return c.Blob(http.StatusOK, "application/javascript", body)
}

// Script returns the content of one script version.
// @Summary Widget script content
// @Tags cdn
// @Produce application/javascript
// @Param id path string true "Script ID"
// @Param apiKey query string true "Integration API key"
// @Param token query string true "Delivery token"
// @Success 200 {string} string "Script JavaScript"
// @Failure 401 {object} map[string]interface{} "Missing, tampered or expired token"
// @Failure 404 {object} map[string]interface{} "Script not found"
// @Router /cdn/scripts/{id} [get]
func (h *CDNHandler) Script(c echo.Context) error {
	script, content, err := h.scripts.Content(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, "public, max-age=86400, immutable")
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	header.Set("Cross-Origin-Resource-Policy", "cross-origin")
	header.Set("Integrity", script.IntegrityHash)
	return c.Blob(http.StatusOK, "application/javascript", content)
}

// Upload stores a new script version from a multipart form with a "file"
// part.
// @Summary Upload a widget script
// @Tags cdn
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Script file"
// @Param name formData string true "Script name"
// @Param version formData string true "Semantic version"
// @Param type formData string true "core, plugin or utility"
// @Param latest formData bool false "Mark as latest of its type"
// @Success 201 {object} models.ScriptAsset
// @Failure 409 {object} map[string]interface{} "Version exists"
// @Failure 503 {object} map[string]interface{} "Object storage unavailable"
// @Router /cdn/scripts [post]
func (h *CDNHandler) Upload(c echo.Context) error {
	var req validator.ScriptUploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxScriptSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "script exceeds 5MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.log.Error("failed to open uploaded file", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return h.log.Error("failed to read uploaded file", err)
	}

	script, err := h.scripts.Upload(c.Request().Context(), services.UploadScriptInput{
		Name:         req.Name,
		Version:      req.Version,
		Type:         models.ScriptType(req.Type),
		Dependencies: req.Dependencies,
		Content:      content,
		Latest:       req.Latest,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, script)
}
