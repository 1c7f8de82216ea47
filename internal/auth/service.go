package auth

import (
	"context"
)

// Service ties the issuer to the resolver: credentials are always minted
// from the subject's current storage state.
type Service struct {
	issuer   *Issuer
	resolver *Resolver
}

func NewService(issuer *Issuer, resolver *Resolver) *Service {
	return &Service{issuer: issuer, resolver: resolver}
}

func (s *Service) Issuer() *Issuer { return s.issuer }

func (s *Service) Resolver() *Resolver { return s.resolver }

// IssueFor resolves userID and mints a fresh credential pair.
func (s *Service) IssueFor(ctx context.Context, userID string) (TokenPair, Resolution, error) {
	res, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return TokenPair{}, Resolution{}, err
	}
	if !res.Found {
		return TokenPair{}, Resolution{}, CredentialInvalid("subject no longer exists", nil)
	}
	pair, err := s.issuer.IssuePair(res.Subject())
	if err != nil {
		return TokenPair{}, Resolution{}, err
	}
	return pair, res, nil
}

// Refresh verifies a refresh credential and mints a new pair from the
// subject's CURRENT roles and permissions. Claims of the old credential are
// never reused, so role changes take effect here and nowhere earlier.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	res, err := s.resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, err
	}
	if !res.Found {
		return TokenPair{}, CredentialInvalid("subject no longer exists", nil)
	}
	if res.TokenVersion != claims.Version {
		return TokenPair{}, CredentialInvalid("credential has been revoked", nil)
	}

	log.Debug("Refreshing credentials for %s", claims.Subject)
	return s.issuer.IssuePair(res.Subject())
}
