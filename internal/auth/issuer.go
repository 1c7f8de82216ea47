package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"a11yhub/internal/config"
	"a11yhub/internal/metrics"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims is the signed payload of access and refresh credentials.
type Claims struct {
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	Type        TokenType `json:"typ"`
	Version     int       `json:"ver"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Issuer mints and verifies HS256 credentials. The secret is copied at
// construction and never mutated.
type Issuer struct {
	secret           []byte
	issuer           string
	accessTTL        time.Duration
	refreshTTL       time.Duration
	embedPermissions bool
	now              func() time.Time
}

type Option func(*Issuer)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithEmbeddedPermissions controls whether permission names go into claims.
func WithEmbeddedPermissions(embed bool) Option {
	return func(i *Issuer) { i.embedPermissions = embed }
}

func WithIssuerName(name string) Option {
	return func(i *Issuer) { i.issuer = name }
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, config.ErrMissingSecret
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, config.ErrInvalidTTL
	}
	i := &Issuer{
		secret:           []byte(secret),
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
		embedPermissions: true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func NewIssuerFromConfig(cfg *config.Config, opts ...Option) (*Issuer, error) {
	base := []Option{
		WithIssuerName(cfg.JWT.Issuer),
		WithEmbeddedPermissions(cfg.Auth.EmbedPermissions),
	}
	return NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, append(base, opts...)...)
}

// IssuePair mints an access and a refresh credential for subject.
func (i *Issuer) IssuePair(subject Subject) (TokenPair, error) {
	if strings.TrimSpace(subject.ID) == "" {
		return TokenPair{}, errors.New("subject id is required")
	}
	access, err := i.sign(subject, AccessToken, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(subject, RefreshToken, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.accessTTL / time.Second),
	}, nil
}

func (i *Issuer) sign(subject Subject, typ TokenType, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Email:   subject.Email,
		Roles:   normalize(subject.Roles),
		Type:    typ,
		Version: subject.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if i.embedPermissions {
		claims.Permissions = normalize(subject.Permissions)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	metrics.TokensIssued.WithLabelValues(string(typ)).Inc()
	return signed, nil
}

func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(token, AccessToken)
}

func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, RefreshToken)
}

// verify checks algorithm, signature, type and expiry against the issuer clock.
func (i *Issuer) verify(token string, want TokenType) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, AuthenticationRequired("missing credential")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, CredentialInvalid("malformed credential", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, CredentialInvalid("signature mismatch", err)
		default:
			return nil, CredentialInvalid("invalid credential", err)
		}
	}

	if claims.Type != want {
		return nil, CredentialInvalid(fmt.Sprintf("expected %s credential", want), nil)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, CredentialInvalid("subject missing", nil)
	}
	if i.issuer != "" && claims.Issuer != i.issuer {
		return nil, CredentialInvalid("unexpected issuer", nil)
	}
	if !claims.VerifyExpiresAt(i.now(), true) {
		return nil, CredentialExpired("credential has expired")
	}
	return claims, nil
}
