package base64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	encoded := EncodeToBase64(`{"integrationId":"abc"}`)
	decoded, err := DecodeFromBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, `{"integrationId":"abc"}`, decoded)
}

func TestDecodeCanonicalRejectsAlternateForms(t *testing.T) {
	// "YQ==" is the canonical encoding of "a"; "YR==" decodes to the same
	// byte with non-zero padding bits.
	data, err := DecodeCanonical("YQ==")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	_, err = DecodeCanonical("YR==")
	assert.Error(t, err)

	_, err = DecodeCanonical("YQ")
	assert.Error(t, err)

	_, err = DecodeCanonical("Y Q==")
	assert.Error(t, err)
}
