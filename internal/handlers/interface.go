package handlers

import (
	"context"
	"sync"
	"time"

	"a11yhub/internal/services"
)

// ScriptStore is the object storage behind script uploads and delivery.
type ScriptStore interface {
	services.ObjectStore
	GetSignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

var (
	scriptStore ScriptStore
	storeMu     sync.RWMutex
)

// RegisterScriptStore sets the store used by the CDN routes. Routes built
// before a store is registered run without object storage.
func RegisterScriptStore(s ScriptStore) {
	storeMu.Lock()
	defer storeMu.Unlock()
	scriptStore = s
}

// GetScriptStore returns the registered store, or nil.
func GetScriptStore() ScriptStore {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return scriptStore
}
