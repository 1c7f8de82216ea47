package auth

// Subject is the identity the issuer signs into a credential.
type Subject struct {
	ID           string
	Email        string
	Roles        []string
	Permissions  []string
	TokenVersion int
}

// Principal is the authenticated caller handed to handlers. A nil Roles or
// Permissions slice means the credential did not carry that set and it
// has to be resolved from storage.
type Principal struct {
	ID           string
	Email        string
	Roles        []string
	Permissions  []string
	TokenVersion int
}

// PrincipalFromClaims builds the principal of a verified access credential.
func PrincipalFromClaims(c *Claims) *Principal {
	return &Principal{
		ID:           c.Subject,
		Email:        c.Email,
		Roles:        c.Roles,
		Permissions:  c.Permissions,
		TokenVersion: c.Version,
	}
}

func contains(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}
