package middleware

import (
	"github.com/labstack/echo/v4"

	"a11yhub/internal/auth"
	"a11yhub/internal/models"
)

// Guard enforces rule on the principal stored by Authenticate.
func Guard(authorizer *auth.Authorizer, rule auth.Rule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := authorizer.Authorize(c.Request().Context(), PrincipalFrom(c), rule)
			if err != nil {
				return err
			}
			setPrincipal(c, principal)
			return next(c)
		}
	}
}

// Roles builds an any-of role rule.
func Roles(names ...models.RoleName) auth.Rule {
	return auth.Rule{Roles: names}
}

// Permissions builds an any-of permission rule.
func Permissions(names ...models.PermissionName) auth.Rule {
	return auth.Rule{Permissions: names}
}
