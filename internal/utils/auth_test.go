package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeys(t *testing.T) {
	apiKey, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(apiKey, "api_"))
	assert.Len(t, apiKey, 4+24)

	secret, err := GenerateSecretKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, "sec_"))
	assert.Len(t, secret, 4+32)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, apiKey, other)
}

func TestGenerateRandomStringCharset(t *testing.T) {
	s, err := GenerateRandomString(512)
	require.NoError(t, err)
	assert.Len(t, s, 512)
	for _, r := range s {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}
}

func TestGetIPAddress(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", GetIPAddress(r))

	r.Header.Set("X-Real-IP", "192.0.2.4")
	assert.Equal(t, "192.0.2.4", GetIPAddress(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", GetIPAddress(r))
}

func TestRequestOrigin(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, RequestOrigin(r))

	r.Header.Set("Referer", "https://shop.example.com/page")
	assert.Equal(t, "https://shop.example.com/page", RequestOrigin(r))

	r.Header.Set("Origin", "https://example.com")
	assert.Equal(t, "https://example.com", RequestOrigin(r))
}

func TestJSONMapRoundTrip(t *testing.T) {
	m, err := JSONToMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	raw, err := MapToJSON(map[string]interface{}{"position": "bottom-right"})
	require.NoError(t, err)
	m, err = JSONToMap(raw)
	require.NoError(t, err)
	assert.Equal(t, "bottom-right", m["position"])
}
