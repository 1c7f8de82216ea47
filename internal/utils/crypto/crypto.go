package crypto

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

const integrityPrefix = "sha384-"

// IntegrityHash returns the subresource integrity value of content.
func IntegrityHash(content []byte) string {
	sum := sha512.Sum384(content)
	return integrityPrefix + base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyIntegrity compares content against an SRI value in constant time.
func VerifyIntegrity(content []byte, expected string) bool {
	if !strings.HasPrefix(expected, integrityPrefix) {
		return false
	}
	actual := IntegrityHash(content)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}
