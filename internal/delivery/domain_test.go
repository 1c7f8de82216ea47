package delivery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"a11yhub/internal/auth"
)

func TestMatchDomain(t *testing.T) {
	additional := []string{"partner.org", "https://shop.example.net", "*.cdn-example.io"}

	tests := []struct {
		name    string
		primary string
		origin  string
		want    Match
	}{
		{"exact primary", "example.com", "https://example.com", MatchPrimary},
		{"primary with port", "example.com", "https://example.com:8443", MatchPrimary},
		{"primary case insensitive", "Example.COM", "https://EXAMPLE.com", MatchPrimary},
		{"primary stored as url", "https://example.com/", "http://example.com", MatchPrimary},
		{"bare origin", "example.com", "example.com", MatchPrimary},
		{"additional exact", "example.com", "https://partner.org", MatchAdditional},
		{"additional stored as url", "example.com", "https://shop.example.net", MatchAdditional},
		{"subdomain of primary", "example.com", "https://www.example.com", MatchSubdomain},
		{"deep subdomain of primary", "example.com", "https://a.b.example.com", MatchSubdomain},
		{"suffix without dot", "example.com", "https://notexample.com", NoMatch},
		{"subdomain of additional is not implied", "example.com", "https://www.partner.org", NoMatch},
		{"wildcard one label", "example.com", "https://a.cdn-example.io", MatchWildcard},
		{"wildcard two labels", "example.com", "https://a.b.cdn-example.io", MatchWildcard},
		{"wildcard needs a label", "example.com", "https://cdn-example.io", NoMatch},
		{"wildcard suffix without dot", "example.com", "https://evilcdn-example.io", NoMatch},
		{"unrelated", "example.com", "https://evil.com", NoMatch},
		{"malformed origin", "example.com", "http://[::1", NoMatch},
		{"bad escape", "example.com", "%zz", NoMatch},
		{"empty origin", "example.com", "", NoMatch},
		{"null origin", "example.com", "null", NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchDomain(tt.primary, additional, tt.origin))
		})
	}
}

func TestWildcardRequiresALabelForBaseDomain(t *testing.T) {
	additional := []string{"*.example.com"}

	assert.Equal(t, MatchWildcard, MatchDomain("site.org", additional, "https://a.b.example.com"))
	assert.Equal(t, NoMatch, MatchDomain("site.org", additional, "https://example.com"))
}

func TestAuthorizeOrigin(t *testing.T) {
	m, err := AuthorizeOrigin("example.com", nil, "https://www.example.com")
	assert.NoError(t, err)
	assert.Equal(t, MatchSubdomain, m)

	_, err = AuthorizeOrigin("example.com", nil, "https://attacker.dev")
	assert.True(t, errors.Is(err, auth.ErrDomainNotAuthorized))
	assert.Equal(t, 403, auth.KindOf(err).Status())
}

func TestValidPattern(t *testing.T) {
	for _, ok := range []string{"example.com", "*.example.com", "https://shop.example.com", "localhost"} {
		assert.True(t, ValidPattern(ok), ok)
	}
	for _, bad := range []string{"", "*.", "exa mple.com", "nodot", "http://[::1"} {
		assert.False(t, ValidPattern(bad), bad)
	}
}
