package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegrityHash(t *testing.T) {
	content := []byte("console.log('widget')")
	hash := IntegrityHash(content)

	assert.True(t, strings.HasPrefix(hash, "sha384-"))
	assert.True(t, VerifyIntegrity(content, hash))
	assert.False(t, VerifyIntegrity([]byte("console.log('evil')"), hash))
	assert.False(t, VerifyIntegrity(content, strings.TrimPrefix(hash, "sha384-")))
}
