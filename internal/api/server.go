package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"a11yhub/internal/api/validator"
	"a11yhub/internal/auth"
	"a11yhub/internal/config"
	"a11yhub/internal/delivery"
	"a11yhub/internal/metrics"
	"a11yhub/internal/models"
	"a11yhub/internal/repository"
	"a11yhub/internal/routes"
	"a11yhub/internal/services"

	console "a11yhub/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *gorm.DB
	deps   *routes.Deps
}

// Options carries the optional collaborators of the server.
type Options struct {
	// Limiter throttles delivery requests per API key and client IP.
	Limiter routes.RateLimiter
	// Usage records deliveries that passed the guard.
	Usage routes.UsageRecorder
	// SkipSeed disables seeding roles, permissions and the super admin.
	SkipSeed bool
}

var log = console.New("API-Server")

// NewServer @title a11yhub API
// @version 1.0
// @description Accessibility widget platform: identity, roles, integrations and script delivery.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewServer(cfg *config.Config, db *gorm.DB, opts Options) (*Server, error) {
	issuer, err := auth.NewIssuerFromConfig(cfg)
	if err != nil {
		return nil, log.Error("Failed to create credential issuer", err)
	}
	signer, err := delivery.NewSignerFromConfig(cfg)
	if err != nil {
		return nil, log.Error("Failed to create delivery signer", err)
	}
	resolver := auth.NewResolver(repository.New(db), cfg.Auth.ResolverTimeout)

	e := echo.New()
	e.HideBanner = true

	// Create custom validator
	e.Validator = validator.NewValidator()

	// Configure middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return ulid.Make().String() },
	}))
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("10M"))
	e.Use(requestMetrics)

	// Custom error handler
	e.HTTPErrorHandler = customHTTPErrorHandler

	s := &Server{
		echo:   e,
		config: cfg,
		db:     db,
		deps: &routes.Deps{
			DB:         db,
			Config:     cfg,
			Auth:       auth.NewService(issuer, resolver),
			Authorizer: auth.NewAuthorizer(resolver),
			Signer:     signer,
			Limiter:    opts.Limiter,
			Usage:      opts.Usage,
		},
	}

	if !opts.SkipSeed {
		s.seed()
	}

	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	}

	if err := s.registerAdminPanel(); err != nil {
		return nil, log.Error("Failed to create admin panel", err)
	}

	routes.SetupAuthRoutes(s.echo, s.deps)

	// Register routes
	s.registerRoutes()
	return s, nil
}

func (s *Server) seed() {
	if err := models.SeedRolesAndPermissions(s.db); err != nil {
		log.Warn("Warning: Failed to seed roles and permissions: %v", err)
	} else {
		log.Success("Successfully seeded roles and permissions")
	}

	if err := models.CreateSuperAdminFromEnv(s.db); err != nil {
		log.Warn("Warning: Failed to create super admin: %v", err)
	}
}

// registerAdminPanel mounts the admin panel under /admin. Only super admins
// holding a current credential get in.
func (s *Server) registerAdminPanel() error {
	gormIntegrator := admingorm.NewIntegrator(s.db)
	echoIntegrator := adminecho.NewIntegrator(s.echo.Group(""))

	permissionChecker := func(request admin.PermissionRequest, ctx interface{}) (bool, error) {
		c, ok := ctx.(echo.Context)
		if !ok {
			return false, nil
		}
		_, err := s.adminPrincipal(c)
		return err == nil, nil
	}

	adminPanel, err := admin.NewPanel(gormIntegrator, echoIntegrator, permissionChecker, nil)
	if err != nil {
		return err
	}

	_, err = adminPanel.RegisterApp("a11yhub", "a11yhub Admin Panel", nil)
	return err
}

// adminPrincipal authenticates the request and requires a fresh super_admin
// grant.
func (s *Server) adminPrincipal(c echo.Context) (*auth.Principal, error) {
	scheme, token, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, auth.AuthenticationRequired("missing credential")
	}
	claims, err := s.deps.Auth.Issuer().VerifyAccess(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return s.deps.Authorizer.Authorize(c.Request().Context(), auth.PrincipalFromClaims(claims), auth.Rule{
		Roles: []models.RoleName{models.RoleSuperAdmin},
		Fresh: true,
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	status := "healthy"
	code := http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":  status,
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if err != nil {
			status = statusOf(err)
		}
		metrics.HTTPRequests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}

// statusOf maps an error returned by a handler to its response status.
func statusOf(err error) int {
	var authErr *auth.Error
	var httpErr *echo.HTTPError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &authErr):
		return authErr.Status()
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrLastRole):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, models.ErrUnknownPermission):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrStorageUnavailable), errors.Is(err, services.ErrIntegrityMismatch):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	code := statusOf(err)
	body := map[string]interface{}{
		"code": code,
		"time": time.Now().Format(time.RFC3339),
	}

	var authErr *auth.Error
	var httpErr *echo.HTTPError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &authErr):
		body["error"] = authErr.Message
		body["kind"] = authErr.Kind
		if len(authErr.Missing) > 0 {
			body["missing"] = authErr.Missing
		}
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		if authErr.Err != nil {
			log.Debug("%s: %v", authErr.Kind, authErr.Err)
		}
	case errors.As(err, &httpErr):
		body["error"] = httpErr.Message
	case errors.As(err, &validationErrs):
		body["error"] = formatValidationErrors(validationErrs)
	case code == http.StatusServiceUnavailable:
		log.Warn("%s %s: %v", c.Request().Method, c.Path(), err)
		body["error"] = http.StatusText(code)
	case code < http.StatusInternalServerError:
		body["error"] = err.Error()
	default:
		log.Warn("unhandled error on %s %s: %v", c.Request().Method, c.Path(), err)
		body["error"] = http.StatusText(code)
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}

// formatValidationErrors formats validation errors into a map
func formatValidationErrors(errors validator.ValidationErrors) map[string]string {
	errMap := make(map[string]string)
	for _, err := range errors {
		field := err.Field()
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errMap[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errMap[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			errMap[field] = fmt.Sprintf("%s must be at most %s", field, param)
		case "excludes":
			errMap[field] = fmt.Sprintf("%s must not contain %q", field, param)
		case "role_name":
			errMap[field] = fmt.Sprintf("%s must be a lowercase role name", field)
		case "permission_name":
			errMap[field] = fmt.Sprintf("%s must be a known resource:action permission", field)
		case "domain_pattern":
			errMap[field] = fmt.Sprintf("%s must be a hostname, optionally prefixed with *.", field)
		case "script_type":
			errMap[field] = fmt.Sprintf("%s must be one of: core, plugin, utility", field)
		case "integration_state":
			errMap[field] = fmt.Sprintf("%s must be one of: active, pending, suspended, disabled", field)
		default:
			errMap[field] = fmt.Sprintf("%s failed validation: %s", field, tag)
		}
	}
	return errMap
}
