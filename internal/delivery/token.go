package delivery

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"a11yhub/internal/auth"
	"a11yhub/internal/config"
	"a11yhub/internal/metrics"
	b64 "a11yhub/internal/utils/base64"
)

const separator = "."

// Claims is the signed delivery payload. Field order is the canonical
// serialization order.
type Claims struct {
	IntegrationID string `json:"integrationId"`
	IssuedAt      int64  `json:"issuedAt"`
	Expiry        int64  `json:"expiry"`
}

// Signer mints and verifies delivery tokens for anonymous script loads.
type Signer struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

func NewSigner(secret string, window time.Duration, now func() time.Time) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, config.ErrMissingSecret
	}
	if window <= 0 {
		return nil, config.ErrInvalidTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), window: window, now: now}, nil
}

func NewSignerFromConfig(cfg *config.Config) (*Signer, error) {
	return NewSigner(cfg.Delivery.TokenSecret, cfg.Delivery.TokenTTL, nil)
}

// Sign returns hex(HMAC-SHA256(payload)) + "." + base64(payload).
func (s *Signer) Sign(integrationID string) (string, error) {
	if integrationID == "" {
		return "", errors.New("integration id is required")
	}
	issued := s.now().Unix()
	payload, err := json.Marshal(Claims{
		IntegrationID: integrationID,
		IssuedAt:      issued,
		Expiry:        issued + int64(s.window/time.Second),
	})
	if err != nil {
		return "", err
	}
	return s.mac(payload) + separator + b64.EncodeToBase64(string(payload)), nil
}

func (s *Signer) mac(payload []byte) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify authenticates token and binds it to expectedIntegrationID. The
// signature is checked before any claim is looked at.
func (s *Signer) Verify(token, expectedIntegrationID string) (Claims, error) {
	claims, err := s.verify(token, expectedIntegrationID)
	if err != nil {
		metrics.DeliveryVerifications.WithLabelValues("token", string(auth.KindOf(err))).Inc()
		return Claims{}, err
	}
	metrics.DeliveryVerifications.WithLabelValues("token", "valid").Inc()
	return claims, nil
}

func (s *Signer) verify(token, expectedIntegrationID string) (Claims, error) {
	sig, encoded, ok := strings.Cut(token, separator)
	if !ok || sig == "" || encoded == "" || strings.Contains(encoded, separator) {
		return Claims{}, tampered("malformed token")
	}

	// Only the canonical lowercase hex form is accepted, so every distinct
	// string maps to a distinct signature.
	if len(sig) != hex.EncodedLen(sha256.Size) || strings.ToLower(sig) != sig {
		return Claims{}, tampered("malformed signature")
	}
	if _, err := hex.DecodeString(sig); err != nil {
		return Claims{}, tampered("malformed signature")
	}

	payload, err := b64.DecodeCanonical(encoded)
	if err != nil {
		return Claims{}, tampered("malformed payload")
	}

	if subtle.ConstantTimeCompare([]byte(sig), []byte(s.mac(payload))) != 1 {
		return Claims{}, tampered("signature mismatch")
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.IntegrationID == "" {
		return Claims{}, tampered("malformed claims")
	}

	if claims.Expiry < s.now().Unix() {
		return Claims{}, auth.New(auth.KindDeliveryTokenExpired, "delivery token has expired")
	}
	if claims.IntegrationID != expectedIntegrationID {
		return Claims{}, auth.New(auth.KindDeliveryTokenIntegrationMismatch, "delivery token belongs to another integration")
	}
	return claims, nil
}

func tampered(msg string) error {
	return auth.New(auth.KindDeliveryTokenTampered, msg)
}
