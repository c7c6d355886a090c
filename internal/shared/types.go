package shared

import "time"

// Asynq queues. Weights are set in cmd/worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Task types.
const (
	TypeCompletionRecheck    = "completion:recheck"
	TypeStaleReservationScan = "reservation:stale_scan"
)

// CompletionRecheckPayload asks the worker to rerun the completion check for
// a request whose post-mutation check failed.
type CompletionRecheckPayload struct {
	RequestID   string    `json:"requestId"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// StaleScanPayload configures one run of the stale reservation detector.
type StaleScanPayload struct {
	OlderThanHours int `json:"olderThanHours"`
	Limit          int `json:"limit"`
}
