package model

import "fmt"

// Status is the order-level lifecycle state.
type Status string

const (
	StatusPending                     Status = "PENDING"
	StatusAwaitingRecommendation      Status = "AWAITING_RECOMMENDATION"
	StatusAwaitingProcurementApproval Status = "AWAITING_PROCUREMENT_APPROVAL"
	StatusReserved                    Status = "RESERVED"
	StatusPicking                     Status = "PICKING"
	StatusInspectionPending           Status = "INSPECTION_PENDING"
	StatusPartiallyBlocked            Status = "PARTIALLY_BLOCKED"
	StatusBlocked                     Status = "BLOCKED"
	StatusWaitingForAllPickups        Status = "WAITING_FOR_ALL_PICKUPS"
	StatusReadyForAllocation          Status = "READY_FOR_ALLOCATION"
	StatusAllocated                   Status = "ALLOCATED"
	StatusInTransit                   Status = "IN_TRANSIT"
	StatusCompleted                   Status = "COMPLETED"
	StatusCancelled                   Status = "CANCELLED"
)

var AllStatuses = []Status{
	StatusPending,
	StatusAwaitingRecommendation,
	StatusAwaitingProcurementApproval,
	StatusReserved,
	StatusPicking,
	StatusInspectionPending,
	StatusPartiallyBlocked,
	StatusBlocked,
	StatusWaitingForAllPickups,
	StatusReadyForAllocation,
	StatusAllocated,
	StatusInTransit,
	StatusCompleted,
	StatusCancelled,
}

var waitingOrReady = []Status{
	StatusPartiallyBlocked, StatusBlocked, StatusWaitingForAllPickups, StatusReadyForAllocation,
}

func with(base []Status, extra ...Status) []Status {
	out := append([]Status{}, extra...)
	return append(out, base...)
}

var transitions = map[Status][]Status{
	StatusPending:                     {StatusAwaitingRecommendation, StatusCancelled},
	StatusAwaitingRecommendation:      {StatusAwaitingProcurementApproval, StatusReserved, StatusCancelled},
	StatusAwaitingProcurementApproval: {StatusReserved, StatusCancelled},
	StatusReserved:                    with(waitingOrReady, StatusPicking, StatusInspectionPending, StatusCancelled),
	StatusPicking:                     with(waitingOrReady, StatusInspectionPending, StatusCancelled),
	StatusInspectionPending:           with(waitingOrReady, StatusPicking, StatusCancelled),
	StatusPartiallyBlocked:            {StatusBlocked, StatusWaitingForAllPickups, StatusPicking, StatusInspectionPending, StatusReadyForAllocation, StatusCancelled},
	StatusBlocked:                     {StatusPartiallyBlocked, StatusWaitingForAllPickups, StatusPicking, StatusInspectionPending, StatusReadyForAllocation, StatusCancelled},
	StatusWaitingForAllPickups:        {StatusPartiallyBlocked, StatusBlocked, StatusPicking, StatusInspectionPending, StatusReadyForAllocation, StatusCancelled},
	StatusReadyForAllocation:          {StatusAllocated, StatusCancelled},
	StatusAllocated:                   {StatusInTransit},
	StatusInTransit:                   {StatusCompleted},
	StatusCompleted:                   {},
	StatusCancelled:                   {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown request status %q", v)
	}
	return s, nil
}

// CanTransition reports whether from → to is allowed. Self-transitions are not.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsSourcing reports whether reservations of the request may still change.
func (s Status) IsSourcing() bool {
	switch s {
	case StatusReserved, StatusPicking, StatusInspectionPending,
		StatusPartiallyBlocked, StatusBlocked, StatusWaitingForAllPickups:
		return true
	}
	return false
}

// IsCompletionEligible reports whether the completion check may recompute
// this request. READY_FOR_ALLOCATION is handled separately as already done.
func (s Status) IsCompletionEligible() bool {
	return s.IsSourcing()
}

// IsCancellable covers every pre-shipment state.
func (s Status) IsCancellable() bool {
	return CanTransition(s, StatusCancelled)
}

// SourceType is the dominant source mix of a plan.
type SourceType string

const (
	SourceLocal  SourceType = "LOCAL"
	SourceImport SourceType = "IMPORT"
	SourceMixed  SourceType = "MIXED"
)
