package auth

import (
	"context"
	"sort"
	"time"

	"a11yhub/internal/metrics"
	"a11yhub/internal/models"
	console "a11yhub/internal/utils/logger"
)

var log = console.New("AUTH")

// Repository is the storage contract the resolver needs. FindUserByID
// returns a nil user and a nil error when the user does not exist.
type Repository interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindRolesByUserID(ctx context.Context, userID string) ([]models.Role, error)
	FindPermissionsByRoleIDs(ctx context.Context, roleIDs []string) ([]models.Permission, error)
}

// Resolution is the current role and permission state of one user.
type Resolution struct {
	Found        bool
	UserID       string
	Email        string
	Roles        []string
	Permissions  []string
	TokenVersion int
}

// Subject converts the resolution into the identity the issuer signs.
func (r Resolution) Subject() Subject {
	return Subject{
		ID:           r.UserID,
		Email:        r.Email,
		Roles:        r.Roles,
		Permissions:  r.Permissions,
		TokenVersion: r.TokenVersion,
	}
}

type Resolver struct {
	repo    Repository
	timeout time.Duration
}

func NewResolver(repo Repository, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{repo: repo, timeout: timeout}
}

// Resolve loads the roles of userID and the de-duplicated union of their
// permissions. A missing user yields an empty resolution. Storage errors
// and deadline overruns are reported as UpstreamLookupFailure.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Resolution, error) {
	start := time.Now()
	defer func() { metrics.ResolverDuration.Observe(time.Since(start).Seconds()) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	empty := Resolution{UserID: userID, Roles: []string{}, Permissions: []string{}}

	user, err := r.repo.FindUserByID(ctx, userID)
	if err != nil {
		return Resolution{}, r.fail(ctx, err)
	}
	if user == nil {
		metrics.ResolverLookups.WithLabelValues("not_found").Inc()
		return empty, nil
	}

	roles, err := r.repo.FindRolesByUserID(ctx, userID)
	if err != nil {
		return Resolution{}, r.fail(ctx, err)
	}

	roleNames := make([]string, 0, len(roles))
	roleIDs := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
		roleIDs = append(roleIDs, role.ID)
	}

	var perms []models.Permission
	if len(roleIDs) > 0 {
		perms, err = r.repo.FindPermissionsByRoleIDs(ctx, roleIDs)
		if err != nil {
			return Resolution{}, r.fail(ctx, err)
		}
	}
	permNames := make([]string, 0, len(perms))
	for _, p := range perms {
		permNames = append(permNames, p.Name)
	}

	// A lookup that finished after the deadline is not trusted.
	if ctx.Err() != nil {
		return Resolution{}, r.fail(ctx, ctx.Err())
	}

	metrics.ResolverLookups.WithLabelValues("ok").Inc()
	return Resolution{
		Found:        true,
		UserID:       user.ID,
		Email:        user.Email,
		Roles:        normalize(roleNames),
		Permissions:  normalize(permNames),
		TokenVersion: user.TokenVersion,
	}, nil
}

func (r *Resolver) fail(ctx context.Context, err error) *Error {
	outcome := "error"
	if ctx.Err() == context.DeadlineExceeded {
		outcome = "timeout"
	}
	metrics.ResolverLookups.WithLabelValues(outcome).Inc()
	_ = log.Error("Role/permission lookup failed ("+outcome+")", err)
	return UpstreamFailure(err)
}

// normalize sorts and de-duplicates names, never returning nil.
func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
