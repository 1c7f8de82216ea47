package services

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrLastRole           = errors.New("cannot revoke the last role of a user")
	ErrStorageUnavailable = errors.New("object storage is not configured")
	ErrIntegrityMismatch  = errors.New("stored script does not match its integrity hash")
)
