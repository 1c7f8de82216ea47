package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, now *time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer("test-access-secret", 15*time.Minute, 24*time.Hour,
		WithIssuerName("a11yhub"),
		WithClock(func() time.Time { return *now }),
	)
	require.NoError(t, err)
	return iss
}

func TestIssuePairRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss := newTestIssuer(t, &now)

	subjects := []Subject{
		{ID: "u1", Email: "a@example.com", Roles: []string{"user"}, Permissions: []string{}},
		{ID: "u2", Email: "b@example.com", Roles: []string{"admin", "user"}, Permissions: []string{"faq:read", "user:read"}},
		{ID: "u3", Email: "c@example.com", Roles: []string{"super_admin"}, Permissions: []string{"role:assign", "permission:assign", "user:delete"}, TokenVersion: 4},
	}

	for _, s := range subjects {
		pair, err := iss.IssuePair(s)
		require.NoError(t, err)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.EqualValues(t, 900, pair.ExpiresIn)

		claims, err := iss.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, s.ID, claims.Subject)
		assert.Equal(t, s.Email, claims.Email)
		assert.ElementsMatch(t, s.Roles, claims.Roles)
		assert.ElementsMatch(t, s.Permissions, claims.Permissions)
		assert.Equal(t, s.TokenVersion, claims.Version)
		assert.NotEmpty(t, claims.ID)

		refresh, err := iss.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, RefreshToken, refresh.Type)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss := newTestIssuer(t, &now)

	pair, err := iss.IssuePair(Subject{ID: "u1", Roles: []string{"user"}})
	require.NoError(t, err)

	_, err = iss.VerifyAccess(pair.RefreshToken)
	assert.Equal(t, KindCredentialInvalid, KindOf(err))

	_, err = iss.VerifyRefresh(pair.AccessToken)
	assert.Equal(t, KindCredentialInvalid, KindOf(err))
}

func TestVerifyExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss := newTestIssuer(t, &now)

	pair, err := iss.IssuePair(Subject{ID: "u1", Roles: []string{"user"}})
	require.NoError(t, err)

	now = now.Add(15*time.Minute - time.Second)
	_, err = iss.VerifyAccess(pair.AccessToken)
	assert.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = iss.VerifyAccess(pair.AccessToken)
	assert.True(t, errors.Is(err, ErrCredentialExpired))
	assert.Equal(t, 401, KindOf(err).Status())

	_, err = iss.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err, "refresh credential outlives the access credential")
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss := newTestIssuer(t, &now)
	other, err := NewIssuer("someone-elses-secret", time.Minute, time.Hour,
		WithIssuerName("a11yhub"),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	pair, err := other.IssuePair(Subject{ID: "u1", Roles: []string{"super_admin"}})
	require.NoError(t, err)

	_, err = iss.VerifyAccess(pair.AccessToken)
	assert.True(t, errors.Is(err, ErrCredentialInvalid))
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss := newTestIssuer(t, &now)

	claims := Claims{
		Roles: []string{"super_admin"},
		Type:  AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "a11yhub",
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.VerifyAccess(unsigned)
	assert.Equal(t, KindCredentialInvalid, KindOf(err))
}

func TestVerifyMalformedAndEmpty(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss := newTestIssuer(t, &now)

	_, err := iss.VerifyAccess("")
	assert.Equal(t, KindAuthenticationRequired, KindOf(err))

	_, err = iss.VerifyAccess("not.a.jwt")
	assert.Equal(t, KindCredentialInvalid, KindOf(err))
}

func TestEmbeddedPermissionsCanBeDisabled(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	iss, err := NewIssuer("test-access-secret", time.Minute, time.Hour,
		WithEmbeddedPermissions(false),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	pair, err := iss.IssuePair(Subject{ID: "u1", Roles: []string{"admin"}, Permissions: []string{"faq:read"}})
	require.NoError(t, err)

	claims, err := iss.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, claims.Permissions)
	assert.Nil(t, PrincipalFromClaims(claims).Permissions)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("  ", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewIssuer("secret", 0, time.Hour)
	assert.Error(t, err)
}
