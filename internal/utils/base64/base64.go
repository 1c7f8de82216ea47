package base64

import (
	"encoding/base64"
	"errors"
)

var ErrNonCanonical = errors.New("base64 input is not in canonical form")

// EncodeToBase64 encodes the input string to a base64 string
func EncodeToBase64(input string) string {
	return base64.StdEncoding.EncodeToString([]byte(input))
}

// DecodeFromBase64 decodes the input base64 string to a normal string
func DecodeFromBase64(input string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeCanonical decodes standard padded base64 and rejects any input that
// would not be produced by re-encoding its own output.
func DecodeCanonical(input string) ([]byte, error) {
	data, err := base64.StdEncoding.Strict().DecodeString(input)
	if err != nil {
		return nil, err
	}
	if base64.StdEncoding.EncodeToString(data) != input {
		return nil, ErrNonCanonical
	}
	return data, nil
}
