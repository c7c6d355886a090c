package model

import (
	"fmt"

	"github.com/google/uuid"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
)

// SourceStatus is the readiness of one live reservation.
type SourceStatus struct {
	ReservationID       uuid.UUID                   `json:"reservation_id"`
	SourceType          reservationModel.SourceKind `json:"source_type"`
	SourceID            uuid.UUID                   `json:"source_id"`
	SourceName          string                      `json:"source_name"`
	Quantity            int                         `json:"quantity"`
	IsReady             bool                        `json:"is_ready"`
	Status              reservationModel.Status     `json:"status"`
	IsPicked            bool                        `json:"is_picked"`
	AIConfirmed         bool                        `json:"ai_confirmed"`
	ProcurementResolved bool                        `json:"procurement_resolved"`
	IsBlocked           bool                        `json:"is_blocked"`
	BlockReason         string                      `json:"block_reason,omitempty"`
}

// CompletionStatus summarizes how far a request is from READY_FOR_ALLOCATION.
type CompletionStatus struct {
	RequestID     uuid.UUID           `json:"request_id"`
	RequestStatus requestModel.Status `json:"request_status"`
	IsComplete    bool                `json:"is_complete"`
	ReadyCount    int                 `json:"ready_count"`
	TotalCount    int                 `json:"total_count"`
	BlockedCount  int                 `json:"blocked_count"`
	Summary       string              `json:"summary"`
	Sources       []SourceStatus      `json:"sources"`
}

// Summarize renders the progress line shown to operators.
func Summarize(ready, total int) string {
	if total > 0 && ready == total {
		return "All sources ready for logistics"
	}
	return fmt.Sprintf("%d/%d sources ready", ready, total)
}

// WaitingStatus picks the request status for a set of live reservations that
// are not all ready.
func WaitingStatus(blocked, total int) requestModel.Status {
	switch {
	case total > 0 && blocked == total:
		return requestModel.StatusBlocked
	case blocked > 0:
		return requestModel.StatusPartiallyBlocked
	}
	return requestModel.StatusWaitingForAllPickups
}
