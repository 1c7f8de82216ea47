package events

import (
	"fmt"
	"sync"

	console "a11yhub/internal/utils/logger"
)

var log = console.New("EVENTS")

// Topics emitted by the identity and delivery layers.
const (
	UserCreated         = "user.created"
	UserDeleted         = "user.deleted"
	RoleAssigned        = "role.assigned"
	RoleRevoked         = "role.revoked"
	PermissionsGranted  = "role.permissions_granted"
	CredentialsRevoked  = "user.credentials_revoked"
	IntegrationCreated  = "integration.created"
	IntegrationStatus   = "integration.status_changed"
	ScriptUploaded      = "script.uploaded"
	AuthorizationDenied = "authz.denied"
)

type EventHandler func(interface{})

type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

var defaultBus = NewEventBus()

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// On registers a handler for an event
func (bus *EventBus) On(event string, handler EventHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers[event] = append(bus.handlers[event], handler)
	log.Debug("Registered handler for event: %s", event)
}

// Emit triggers an event with the given data. Handlers run on their own
// goroutine and a panicking handler is logged, not propagated.
func (bus *EventBus) Emit(event string, data interface{}) {
	bus.mu.RLock()
	handlers, exists := bus.handlers[event]
	bus.mu.RUnlock()

	if !exists {
		return
	}

	log.Debug("Emitting event: %s", event)

	for _, handler := range handlers {
		go func(h EventHandler) {
			defer func() {
				if r := recover(); r != nil {
					_ = log.Error("Panic in event handler", fmt.Errorf("panic: %v", r))
				}
			}()
			h(data)
		}(handler)
	}
}

// On Global event functions that use the default event bus
func On(event string, handler EventHandler) {
	defaultBus.On(event, handler)
}

func Emit(event string, data interface{}) {
	defaultBus.Emit(event, data)
}

// RegisterAuditLog logs every security relevant topic on the default bus.
func RegisterAuditLog() {
	audit := console.New("AUDIT")
	for _, topic := range []string{
		UserCreated, UserDeleted, RoleAssigned, RoleRevoked, PermissionsGranted,
		CredentialsRevoked, IntegrationCreated, IntegrationStatus, ScriptUploaded,
		AuthorizationDenied,
	} {
		topic := topic
		On(topic, func(data interface{}) {
			audit.Info("%s %+v", topic, data)
		})
	}
}
