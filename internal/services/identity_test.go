package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11yhub/internal/auth"
	"a11yhub/internal/models"
)

func TestRegisterAttachesDefaultRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, pair, err := env.identity.Register(ctx, RegisterInput{
		Email:     "  Jane@Example.com ",
		Password:  "correct horse battery",
		FirstName: "Jane",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "correct horse battery", user.Password)

	claims, err := env.auth.Issuer().VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, []string{"user"}, claims.Roles)
	assert.Empty(t, claims.Permissions)

	_, _, err = env.identity.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "another password"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "jane@example.com")

	_, pair, err := env.identity.Authenticate(ctx, "JANE@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = env.identity.Authenticate(ctx, "jane@example.com", "wrong")
	assert.Equal(t, auth.KindCredentialInvalid, auth.KindOf(err))

	_, _, err = env.identity.Authenticate(ctx, "nobody@example.com", "correct horse battery")
	assert.Equal(t, auth.KindCredentialInvalid, auth.KindOf(err))
}

func TestRevokeLastRoleIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane@example.com")

	err := env.identity.RevokeRole(ctx, user.ID, string(models.RoleUser))
	assert.ErrorIs(t, err, ErrLastRole)

	profile, err := env.identity.AssignRole(ctx, user.ID, string(models.RoleAdmin))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "admin"}, profile.RoleNames())

	// assigning again keeps a single row
	profile, err = env.identity.AssignRole(ctx, user.ID, string(models.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, profile.Roles, 2)

	require.NoError(t, env.identity.RevokeRole(ctx, user.ID, string(models.RoleUser)))
	profile, err = env.identity.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, profile.RoleNames())

	err = env.identity.RevokeRole(ctx, user.ID, string(models.RoleSuperAdmin))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoftDeletedRoleDoesNotCountAsHeld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane@example.com")

	_, err := env.identity.AssignRole(ctx, user.ID, string(models.RoleAdmin))
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.Role{}).
		Where("name = ?", models.RoleAdmin).
		Update("is_deleted", true).Error)

	err = env.identity.RevokeRole(ctx, user.ID, string(models.RoleUser))
	assert.ErrorIs(t, err, ErrLastRole)

	err = env.identity.RevokeRole(ctx, user.ID, string(models.RoleAdmin))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "jane@example.com")

	_, err := env.identity.AssignRole(context.Background(), user.ID, "owner")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.identity.AssignRole(context.Background(), "missing-user", string(models.RoleAdmin))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleGrantReachesRefreshedCredential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane@example.com")

	_, pair, err := env.identity.Authenticate(ctx, "jane@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = env.identity.AssignRole(ctx, user.ID, string(models.RoleAdmin))
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := env.auth.Issuer().VerifyAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "admin"}, claims.Roles)
	assert.Contains(t, claims.Permissions, "faq:create")
	assert.Contains(t, claims.Permissions, "user:read")
	assert.NotContains(t, claims.Permissions, "user:delete")
}

func TestRevokeCredentialsInvalidatesRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane@example.com")

	_, pair, err := env.identity.Authenticate(ctx, "jane@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, env.identity.RevokeCredentials(ctx, user.ID))

	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, auth.KindCredentialInvalid, auth.KindOf(err))

	// a new login carries the bumped generation
	_, pair, err = env.identity.Authenticate(ctx, "jane@example.com", "correct horse battery")
	require.NoError(t, err)
	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "jane@example.com")

	_, pair, err := env.identity.Authenticate(ctx, "jane@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, env.identity.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, env.identity.DeleteUser(ctx, user.ID), ErrNotFound)

	res, err := env.auth.Resolver().Resolve(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, auth.KindCredentialInvalid, auth.KindOf(err))

	_, _, err = env.identity.Authenticate(ctx, "jane@example.com", "correct horse battery")
	assert.Equal(t, auth.KindCredentialInvalid, auth.KindOf(err))
}
