package routes

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"a11yhub/internal/api/middleware"
	"a11yhub/internal/auth"
	"a11yhub/internal/config"
	"a11yhub/internal/delivery"
)

type (
	RateLimiter   = middleware.RateLimiter
	UsageRecorder = middleware.UsageRecorder
)

// Deps carries the shared collaborators every route group is built from.
// Limiter and Usage may be nil.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Auth       *auth.Service
	Authorizer *auth.Authorizer
	Signer     *delivery.Signer
	Limiter    middleware.RateLimiter
	Usage      middleware.UsageRecorder
}

// Authenticated returns the middleware verifying access credentials.
func (d *Deps) Authenticated() echo.MiddlewareFunc {
	return middleware.Authenticate(d.Auth.Issuer())
}

// Guard enforces rule after authentication.
func (d *Deps) Guard(rule auth.Rule) echo.MiddlewareFunc {
	return middleware.Guard(d.Authorizer, rule)
}
