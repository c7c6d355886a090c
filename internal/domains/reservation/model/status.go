package model

import "fmt"

// Status is the per-reservation lifecycle state.
type Status string

const (
	StatusPending             Status = "PENDING"
	StatusPicked              Status = "PICKED"
	StatusAIConfirmed         Status = "AI_CONFIRMED"
	StatusAIDamaged           Status = "AI_DAMAGED"
	StatusAILowConfidence     Status = "AI_LOW_CONFIDENCE"
	StatusProcurementResolved Status = "PROCUREMENT_RESOLVED"
	StatusSupplierPending     Status = "SUPPLIER_PENDING"
	StatusSupplierConfirmed   Status = "SUPPLIER_CONFIRMED"
	StatusReady               Status = "READY"
	StatusBlocked             Status = "BLOCKED"
)

// AllStatuses lists every state. The transition table must have an entry for each.
var AllStatuses = []Status{
	StatusPending,
	StatusPicked,
	StatusAIConfirmed,
	StatusAIDamaged,
	StatusAILowConfidence,
	StatusProcurementResolved,
	StatusSupplierPending,
	StatusSupplierConfirmed,
	StatusReady,
	StatusBlocked,
}

var transitions = map[Status][]Status{
	StatusPending: {StatusPicked, StatusBlocked, StatusReady},
	StatusPicked: {
		StatusAIConfirmed, StatusAIDamaged, StatusAILowConfidence,
		StatusProcurementResolved, StatusBlocked, StatusReady,
	},
	StatusAIConfirmed: {StatusAIDamaged, StatusAILowConfidence, StatusBlocked, StatusReady},
	StatusAIDamaged: {
		StatusAILowConfidence, StatusProcurementResolved, StatusPending, StatusBlocked, StatusReady,
	},
	StatusAILowConfidence: {
		StatusAIDamaged, StatusProcurementResolved, StatusPending, StatusBlocked, StatusReady,
	},
	StatusProcurementResolved: {StatusAIDamaged, StatusAILowConfidence, StatusBlocked, StatusReady},
	StatusSupplierPending:     {StatusSupplierConfirmed, StatusBlocked, StatusReady},
	StatusSupplierConfirmed:   {StatusBlocked, StatusReady},
	StatusReady:               {StatusBlocked},
	StatusBlocked:             {StatusProcurementResolved, StatusPending, StatusReady},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown reservation status %q", v)
	}
	return s, nil
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourceKind distinguishes warehouse from supplier reservations.
type SourceKind string

const (
	SourceWarehouse SourceKind = "WAREHOUSE"
	SourceSupplier  SourceKind = "SUPPLIER"
	SourceUnknown   SourceKind = "UNKNOWN"
)

// Outcome is the effective inspection result applied to a reservation.
type Outcome string

const (
	OutcomePass          Outcome = "OK"
	OutcomeDamaged       Outcome = "DAMAGED"
	OutcomeExpired       Outcome = "EXPIRED"
	OutcomeLowConfidence Outcome = "LOW_CONFIDENCE"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePass, OutcomeDamaged, OutcomeExpired, OutcomeLowConfidence:
		return true
	}
	return false
}

// target maps a non-pass outcome to the blocked state it produces.
func (o Outcome) target() Status {
	switch o {
	case OutcomePass:
		return StatusAIConfirmed
	case OutcomeDamaged, OutcomeExpired:
		return StatusAIDamaged
	case OutcomeLowConfidence:
		return StatusAILowConfidence
	}
	return ""
}
