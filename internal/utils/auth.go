package utils

import (
	"crypto/rand"
	"fmt"
)

const (
	APIKeyPrefix    = "api_"
	SecretKeyPrefix = "sec_"
	apiKeyLength    = 24
	secretKeyLength = 32
)

// 🎲 GenerateRandomString generates a random string of specified length using crypto/rand
func GenerateRandomString(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Largest multiple of len(charset) that fits a byte; larger bytes are
	// discarded to keep the distribution uniform.
	const limit = 256 - 256%len(charset)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		// 🔒 Use crypto/rand for secure random generation
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// GenerateAPIKey returns a public integration key, "api_" + 24 characters.
func GenerateAPIKey() (string, error) {
	s, err := GenerateRandomString(apiKeyLength)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + s, nil
}

// GenerateSecretKey returns a private integration key, "sec_" + 32 characters.
func GenerateSecretKey() (string, error) {
	s, err := GenerateRandomString(secretKeyLength)
	if err != nil {
		return "", err
	}
	return SecretKeyPrefix + s, nil
}
