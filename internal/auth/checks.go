package auth

import (
	"context"

	"a11yhub/internal/events"
	"a11yhub/internal/metrics"
	"a11yhub/internal/models"
)

// AuthorizationCheck is one gate of the guard pipeline.
type AuthorizationCheck interface {
	Name() string
	Evaluate(ctx context.Context, grants *Grants) error
}

// RoleCheck passes when the caller holds any of Roles.
type RoleCheck struct {
	Roles []string
}

func (RoleCheck) Name() string { return "role" }

func (c RoleCheck) Evaluate(ctx context.Context, grants *Grants) error {
	have, err := grants.Roles(ctx)
	if err != nil {
		return err
	}
	return anyOf(c.Roles, have)
}

// PermissionCheck passes when the caller holds any of Permissions.
type PermissionCheck struct {
	Permissions []string
}

func (PermissionCheck) Name() string { return "permission" }

func (c PermissionCheck) Evaluate(ctx context.Context, grants *Grants) error {
	have, err := grants.Permissions(ctx)
	if err != nil {
		return err
	}
	return anyOf(c.Permissions, have)
}

func anyOf(required, have []string) error {
	for _, r := range required {
		if contains(have, r) {
			return nil
		}
	}
	missing := make([]string, len(required))
	copy(missing, required)
	return Denied(missing)
}

// Rule is the declarative requirement attached to one route. Fresh rules
// gate destructive or privilege-escalating operations and always read the
// caller's grants from storage.
type Rule struct {
	Roles       []models.RoleName
	Permissions []models.PermissionName
	Fresh       bool
}

// Checks returns the role check followed by the permission check, omitting
// an empty requirement.
func (r Rule) Checks() []AuthorizationCheck {
	var checks []AuthorizationCheck
	if len(r.Roles) > 0 {
		roles := make([]string, 0, len(r.Roles))
		for _, role := range r.Roles {
			roles = append(roles, string(role))
		}
		checks = append(checks, RoleCheck{Roles: roles})
	}
	if len(r.Permissions) > 0 {
		perms := make([]string, 0, len(r.Permissions))
		for _, p := range r.Permissions {
			perms = append(perms, string(p))
		}
		checks = append(checks, PermissionCheck{Permissions: perms})
	}
	return checks
}

// Grants exposes the caller's roles and permissions to checks. Sets missing
// from the credential are resolved from storage at most once.
type Grants struct {
	principal *Principal
	resolver  *Resolver
	fresh     bool
	resolved  *Resolution
}

func (g *Grants) resolve(ctx context.Context) (*Resolution, error) {
	if g.resolved != nil {
		return g.resolved, nil
	}
	if g.resolver == nil {
		return nil, UpstreamFailure(nil)
	}
	res, err := g.resolver.Resolve(ctx, g.principal.ID)
	if err != nil {
		return nil, err
	}
	g.resolved = &res
	return g.resolved, nil
}

func (g *Grants) Roles(ctx context.Context) ([]string, error) {
	if !g.fresh && g.principal.Roles != nil {
		return g.principal.Roles, nil
	}
	res, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return res.Roles, nil
}

func (g *Grants) Permissions(ctx context.Context) ([]string, error) {
	if !g.fresh && g.principal.Permissions != nil {
		return g.principal.Permissions, nil
	}
	res, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return res.Permissions, nil
}

type Authorizer struct {
	resolver *Resolver
}

func NewAuthorizer(resolver *Resolver) *Authorizer {
	return &Authorizer{resolver: resolver}
}

// Authorize runs rule against principal and returns the principal enriched
// with whatever was resolved along the way. Any indeterminate state denies.
func (a *Authorizer) Authorize(ctx context.Context, principal *Principal, rule Rule) (*Principal, error) {
	if principal == nil || principal.ID == "" {
		return nil, AuthenticationRequired("missing credential")
	}

	grants := &Grants{principal: principal, resolver: a.resolver, fresh: rule.Fresh}

	if rule.Fresh {
		res, err := grants.resolve(ctx)
		if err != nil {
			metrics.AuthorizationDecisions.WithLabelValues("fresh", "error").Inc()
			return nil, err
		}
		if !res.Found {
			metrics.AuthorizationDecisions.WithLabelValues("fresh", "deny").Inc()
			return nil, CredentialInvalid("subject no longer exists", nil)
		}
		if res.TokenVersion != principal.TokenVersion {
			metrics.AuthorizationDecisions.WithLabelValues("fresh", "deny").Inc()
			return nil, CredentialInvalid("credential has been revoked", nil)
		}
	}

	for _, check := range rule.Checks() {
		if err := check.Evaluate(ctx, grants); err != nil {
			outcome := "deny"
			if KindOf(err) == KindUpstreamLookupFailure {
				outcome = "error"
			} else {
				events.Emit(events.AuthorizationDenied, map[string]interface{}{
					"userId": principal.ID,
					"check":  check.Name(),
					"error":  err.Error(),
				})
			}
			metrics.AuthorizationDecisions.WithLabelValues(check.Name(), outcome).Inc()
			return nil, err
		}
		metrics.AuthorizationDecisions.WithLabelValues(check.Name(), "allow").Inc()
	}

	return enrich(principal, grants.resolved, rule.Fresh), nil
}

func enrich(p *Principal, res *Resolution, fresh bool) *Principal {
	out := *p
	if res == nil {
		return &out
	}
	if fresh || out.Roles == nil {
		out.Roles = res.Roles
	}
	if fresh || out.Permissions == nil {
		out.Permissions = res.Permissions
	}
	return &out
}
