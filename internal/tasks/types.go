package tasks

import "time"

// Task Types
const (
	// TaskTypeIntegrationUsed stamps Integration.LastUsedAt after a delivery.
	TaskTypeIntegrationUsed = "integration:used"
	// TaskTypeScriptIntegrity re-hashes active scripts against their SRI value.
	TaskTypeScriptIntegrity = "script:integrity"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background tasks like usage stamps
)

// Task Priorities (1-10, higher is more important)
const (
	PriorityCritical = 10
	PriorityHigh     = 8
	PriorityNormal   = 5
	PriorityLow      = 3
	PriorityBG       = 1
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)

type IntegrationUsedPayload struct {
	IntegrationID string    `json:"integrationId"`
	UsedAt        time.Time `json:"usedAt"`
}

type ScriptIntegrityPayload struct {
	// Empty means every active script.
	ScriptIDs []string `json:"scriptIds,omitempty"`
}
