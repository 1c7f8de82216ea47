package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"a11yhub/internal/auth"
	"a11yhub/internal/delivery"
	"a11yhub/internal/metrics"
	"a11yhub/internal/models"
	"a11yhub/internal/utils"
)

const integrationKey = "integration"

// IntegrationLookup finds an integration by its public API key, returning
// nil when none exists.
type IntegrationLookup interface {
	FindIntegrationByAPIKey(ctx context.Context, apiKey string) (*models.Integration, error)
}

// RateLimiter admits or rejects one request for identifier.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
}

// UsageRecorder is told about every delivery that passed the guard.
type UsageRecorder interface {
	RecordIntegrationUsed(ctx context.Context, integrationID string) error
}

// DeliveryPolicy states what a delivery endpoint demands on top of a valid
// active API key.
type DeliveryPolicy struct {
	RequireOrigin bool
	RequireToken  bool
}

type DeliveryGuard struct {
	lookup  IntegrationLookup
	signer  *delivery.Signer
	limiter RateLimiter
	usage   UsageRecorder
}

// NewDeliveryGuard builds the guard. limiter and usage may be nil.
func NewDeliveryGuard(lookup IntegrationLookup, signer *delivery.Signer, limiter RateLimiter, usage UsageRecorder) *DeliveryGuard {
	return &DeliveryGuard{lookup: lookup, signer: signer, limiter: limiter, usage: usage}
}

// Require returns the middleware enforcing policy. Checks run in order:
// api key, rate limit, integration lookup and status, origin, token.
// A token present on the request is verified whatever the policy says.
func (g *DeliveryGuard) Require(policy DeliveryPolicy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			apiKey := c.QueryParam("apiKey")
			if apiKey == "" {
				return auth.AuthenticationRequired("missing apiKey")
			}

			if g.limiter != nil {
				allowed, err := g.limiter.Allow(ctx, apiKey+":"+utils.GetIPAddress(req))
				if err != nil {
					// limiter errors fail open
					log.Warn("rate limiter unavailable: %v", err)
				} else if !allowed {
					metrics.DeliveryVerifications.WithLabelValues("rate", "limited").Inc()
					return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
				}
			}

			integration, err := g.lookup.FindIntegrationByAPIKey(ctx, apiKey)
			if err != nil {
				return auth.UpstreamFailure(err)
			}
			if integration == nil {
				metrics.DeliveryVerifications.WithLabelValues("api_key", "unknown").Inc()
				return auth.CredentialInvalid("unknown apiKey", nil)
			}
			if !integration.IsActive() {
				metrics.DeliveryVerifications.WithLabelValues("api_key", "inactive").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "integration is not active")
			}

			origin := utils.RequestOrigin(req)
			if origin == "" {
				if policy.RequireOrigin {
					metrics.DeliveryVerifications.WithLabelValues("origin", "missing").Inc()
					return auth.New(auth.KindDomainNotAuthorized, "origin header is required")
				}
			} else if _, err := delivery.AuthorizeOrigin(integration.Domain, integration.AllowedDomains, origin); err != nil {
				log.Warn("origin %s rejected for integration %s", origin, integration.ID)
				return err
			}

			if token := c.QueryParam("token"); token != "" {
				if _, err := g.signer.Verify(token, integration.ID); err != nil {
					return err
				}
			} else if policy.RequireToken {
				return auth.AuthenticationRequired("missing delivery token")
			}

			if g.usage != nil {
				if err := g.usage.RecordIntegrationUsed(ctx, integration.ID); err != nil {
					log.Warn("failed to record usage of %s: %v", integration.ID, err)
				}
			}

			c.Set(integrationKey, integration)
			return next(c)
		}
	}
}

// IntegrationFrom returns the integration admitted by the delivery guard.
func IntegrationFrom(c echo.Context) *models.Integration {
	if i, ok := c.Get(integrationKey).(*models.Integration); ok {
		return i
	}
	return nil
}
