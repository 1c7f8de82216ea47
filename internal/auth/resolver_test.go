package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11yhub/internal/models"
)

func TestResolveUnionsPermissionsAcrossRoles(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser("u1", "a@example.com", 2, role("r-admin", models.RoleAdmin), role("r-user", models.RoleUser))
	repo.grant("r-admin", models.PermUserRead, models.PermFAQRead, models.PermFAQDelete)
	repo.grant("r-user", models.PermFAQRead)

	res, err := NewResolver(repo, time.Second).Resolve(context.Background(), "u1")
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, "a@example.com", res.Email)
	assert.Equal(t, 2, res.TokenVersion)
	assert.ElementsMatch(t, []string{"admin", "user"}, res.Roles)
	assert.ElementsMatch(t, []string{"user:read", "faq:read", "faq:delete"}, res.Permissions)
}

func TestResolveMissingUserIsEmptyNotError(t *testing.T) {
	res, err := NewResolver(newFakeRepo(), time.Second).Resolve(context.Background(), "ghost")
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Empty(t, res.Roles)
	assert.Empty(t, res.Permissions)
}

func TestResolveStorageErrorIsUpstreamFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")

	_, err := NewResolver(repo, time.Second).Resolve(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamLookupFailure))
	assert.Equal(t, http.StatusServiceUnavailable, KindOf(err).Status())
}

func TestResolveTimeoutFailsClosed(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser("u1", "a@example.com", 0, role("r-admin", models.RoleAdmin))
	repo.block = true

	start := time.Now()
	_, err := NewResolver(repo, 20*time.Millisecond).Resolve(context.Background(), "u1")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, KindUpstreamLookupFailure, KindOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
