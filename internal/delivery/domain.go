package delivery

import (
	"net/url"
	"strings"

	"a11yhub/internal/auth"
	"a11yhub/internal/metrics"
)

// Match reports which rule authorized an origin.
type Match int

const (
	NoMatch Match = iota
	MatchPrimary
	MatchAdditional
	MatchSubdomain
	MatchWildcard
)

func (m Match) String() string {
	switch m {
	case MatchPrimary:
		return "primary"
	case MatchAdditional:
		return "additional"
	case MatchSubdomain:
		return "subdomain"
	case MatchWildcard:
		return "wildcard"
	default:
		return "none"
	}
}

func (m Match) Allowed() bool { return m != NoMatch }

const wildcardPrefix = "*."

// Hostname extracts the lower-cased host of a URL, origin or bare domain,
// without port. Bare values are parsed as if prefixed with https://.
func Hostname(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || strings.ContainsAny(host, " *") {
		return "", false
	}
	return host, true
}

// MatchDomain decides whether origin may load assets of an integration
// registered for primary and additional. First match wins: exact primary,
// exact additional entry, subdomain of primary, wildcard entry.
func MatchDomain(primary string, additional []string, origin string) Match {
	host, ok := Hostname(origin)
	if !ok {
		return NoMatch
	}
	primaryHost, primaryOK := Hostname(primary)

	if primaryOK && host == primaryHost {
		return MatchPrimary
	}

	for _, entry := range additional {
		if strings.HasPrefix(strings.TrimSpace(entry), wildcardPrefix) {
			continue
		}
		if h, ok := Hostname(entry); ok && host == h {
			return MatchAdditional
		}
	}

	if primaryOK && strings.HasSuffix(host, "."+primaryHost) {
		return MatchSubdomain
	}

	for _, entry := range additional {
		entry = strings.TrimSpace(entry)
		if !strings.HasPrefix(entry, wildcardPrefix) {
			continue
		}
		base, ok := Hostname(strings.TrimPrefix(entry, wildcardPrefix))
		if ok && strings.HasSuffix(host, "."+base) {
			return MatchWildcard
		}
	}

	return NoMatch
}

// AuthorizeOrigin wraps MatchDomain into the error taxonomy.
func AuthorizeOrigin(primary string, additional []string, origin string) (Match, error) {
	m := MatchDomain(primary, additional, origin)
	metrics.DeliveryVerifications.WithLabelValues("origin", m.String()).Inc()
	if !m.Allowed() {
		return m, auth.New(auth.KindDomainNotAuthorized, "origin is not authorized for this integration")
	}
	return m, nil
}

// ValidPattern reports whether entry is a usable domain or *.domain pattern.
func ValidPattern(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.HasPrefix(entry, wildcardPrefix) {
		entry = strings.TrimPrefix(entry, wildcardPrefix)
	}
	host, ok := Hostname(entry)
	return ok && (strings.Contains(host, ".") || host == "localhost")
}
