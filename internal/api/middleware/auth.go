package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/auth"
	"a11yhub/internal/utils/logger"
)

var log = logger.New("auth_middleware")

const (
	principalKey = "principal"
	userIDKey    = "userID"
)

// Authenticate verifies the Bearer access credential and stores the
// principal on the context. It never consults storage.
func Authenticate(issuer *auth.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return auth.AuthenticationRequired("missing authorization header")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return auth.AuthenticationRequired("invalid authorization header format")
			}

			claims, err := issuer.VerifyAccess(token)
			if err != nil {
				log.Debug("rejected credential: %v", err)
				return err
			}

			setPrincipal(c, auth.PrincipalFromClaims(claims))
			return next(c)
		}
	}
}

func setPrincipal(c echo.Context, p *auth.Principal) {
	c.Set(principalKey, p)
	c.Set(userIDKey, p.ID)
}

// PrincipalFrom returns the authenticated principal, enriched by any guard
// that ran before the handler.
func PrincipalFrom(c echo.Context) *auth.Principal {
	if p, ok := c.Get(principalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}

// GetUserID returns the authenticated user's id or "".
func GetUserID(c echo.Context) string {
	if id, ok := c.Get(userIDKey).(string); ok {
		return id
	}
	return ""
}
