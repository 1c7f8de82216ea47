package models

import (
	"context"
	"sync"
	"time"
)

// ObjectURLGenerator generates time-limited URLs for stored script objects
type ObjectURLGenerator interface {
	GetSignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

var (
	urlGenerator ObjectURLGenerator
	registryMu   sync.RWMutex
)

// RegisterObjectURLGenerator sets the URL generator used by ScriptAsset.AfterFind.
// Passing nil disables signed URLs.
func RegisterObjectURLGenerator(generator ObjectURLGenerator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	urlGenerator = generator
}
