package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/shared/actor"
)

// Reservation claims part of a request's quantity against one source.
// Rows are never deleted once replaced: a replacement retires the original
// and links the new row back through ReplacesID.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`

	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	IsLocal     bool       `json:"is_local"`

	Status        Status `json:"status"`
	EstimatedDays int    `json:"estimated_days"`

	IsBlocked   bool   `json:"is_blocked"`
	BlockReason string `json:"block_reason,omitempty"`

	IsPicked bool       `json:"is_picked"`
	PickedAt *time.Time `json:"picked_at,omitempty"`
	PickedBy *uuid.UUID `json:"picked_by,omitempty"`

	AIConfirmed   bool       `json:"ai_confirmed"`
	AIConfirmedAt *time.Time `json:"ai_confirmed_at,omitempty"`

	ProcurementResolved   bool       `json:"procurement_resolved"`
	ProcurementResolvedAt *time.Time `json:"procurement_resolved_at,omitempty"`
	ProcurementNotes      string     `json:"procurement_notes,omitempty"`

	SupplierConfirmedAt *time.Time `json:"supplier_confirmed_at,omitempty"`
	AutoConfirmed       bool       `json:"auto_confirmed"`

	Retired   bool       `json:"retired"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	// ReplacesID is the parent in the replacement arena.
	ReplacesID *uuid.UUID `json:"replaces_id,omitempty"`

	ForceReadyReason string     `json:"force_ready_reason,omitempty"`
	ForcedBy         *uuid.UUID `json:"forced_by,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWarehouseReservation starts a local reservation at PENDING.
func NewWarehouseReservation(requestID, productID, warehouseID uuid.UUID, qty, days int, now time.Time) (*Reservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	wh := warehouseID
	return &Reservation{
		ID:            uuid.New(),
		RequestID:     requestID,
		ProductID:     productID,
		Quantity:      qty,
		WarehouseID:   &wh,
		IsLocal:       true,
		Status:        StatusPending,
		EstimatedDays: days,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewSupplierReservation starts an import reservation. confirmed carries the
// outcome of the auto-confirm policy.
func NewSupplierReservation(requestID, productID, supplierID uuid.UUID, qty, days int, confirmed bool, now time.Time) (*Reservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	sup := supplierID
	r := &Reservation{
		ID:            uuid.New(),
		RequestID:     requestID,
		ProductID:     productID,
		Quantity:      qty,
		SupplierID:    &sup,
		Status:        StatusSupplierPending,
		EstimatedDays: days,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if confirmed {
		r.Status = StatusSupplierConfirmed
		r.AutoConfirmed = true
		r.SupplierConfirmedAt = &now
	}
	return r, nil
}

// Source returns the kind of source; rows with neither or both ids are unknown.
func (r *Reservation) Source() SourceKind {
	switch {
	case r.WarehouseID != nil && r.SupplierID == nil:
		return SourceWarehouse
	case r.SupplierID != nil && r.WarehouseID == nil:
		return SourceSupplier
	}
	return SourceUnknown
}

// SourceID returns the warehouse or supplier id.
func (r *Reservation) SourceID() uuid.UUID {
	switch r.Source() {
	case SourceWarehouse:
		return *r.WarehouseID
	case SourceSupplier:
		return *r.SupplierID
	}
	return uuid.Nil
}

// IsLive reports whether the reservation still counts toward completion.
func (r *Reservation) IsLive() bool {
	return !r.Retired && r.Quantity > 0
}

func (r *Reservation) moveTo(to Status, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if !CanTransition(r.Status, to) {
		return ErrInvalidTransition.WithDetail("%s -> %s", r.Status, to)
	}
	r.Status = to
	r.UpdatedAt = at
	return nil
}

// Pick marks a warehouse reservation physically picked. A second pick is an error.
func (r *Reservation) Pick(a actor.Actor, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if r.Source() != SourceWarehouse {
		return ErrNotWarehouseSource
	}
	if r.IsPicked {
		return ErrAlreadyPicked
	}
	if err := r.moveTo(StatusPicked, at); err != nil {
		return err
	}
	r.IsPicked = true
	r.PickedAt = &at
	r.PickedBy = a.UserRef()
	return nil
}

// ApplyVerdict records the classifier outcome on a picked reservation. A later
// photo of an already confirmed reservation can only demote it.
func (r *Reservation) ApplyVerdict(o Outcome, at time.Time) error {
	if !o.IsValid() {
		return ErrInvalidOutcome
	}
	if r.Source() != SourceWarehouse {
		return ErrNotWarehouseSource
	}
	if r.Retired {
		return ErrRetired
	}
	switch r.Status {
	case StatusPicked:
	case StatusAIConfirmed:
		if o == OutcomePass {
			return nil
		}
	default:
		return ErrInvalidTransition.WithDetail("verdict requires %s, got %s", StatusPicked, r.Status)
	}
	return r.applyOutcome(o, at)
}

// AcceptsVerdict reports whether ApplyVerdict would act on this reservation.
func (r *Reservation) AcceptsVerdict() bool {
	return !r.Retired && r.Source() == SourceWarehouse &&
		(r.Status == StatusPicked || r.Status == StatusAIConfirmed)
}

// ApplyOverride applies a human override of the inspection result. A pass
// resolves the reservation; anything else blocks it.
func (r *Reservation) ApplyOverride(a actor.Actor, o Outcome, reason string, at time.Time) error {
	if !o.IsValid() {
		return ErrInvalidOutcome
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if r.Source() != SourceWarehouse {
		return ErrNotWarehouseSource
	}
	if o == OutcomePass {
		switch r.Status {
		case StatusAIConfirmed, StatusProcurementResolved, StatusReady:
			return nil
		}
		return r.resolve(a, reason, at)
	}
	return r.applyOutcome(o, at)
}

func (r *Reservation) applyOutcome(o Outcome, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if r.Status != o.target() {
		if err := r.moveTo(o.target(), at); err != nil {
			return err
		}
	}
	r.UpdatedAt = at
	if o == OutcomePass {
		r.AIConfirmed = true
		r.AIConfirmedAt = &at
		r.IsBlocked = false
		r.BlockReason = ""
		return nil
	}
	r.AIConfirmed = false
	r.ProcurementResolved = false
	r.IsBlocked = true
	r.BlockReason = string(o)
	return nil
}

// Resolve is procurement's "accept and proceed" on a blocked reservation.
func (r *Reservation) Resolve(a actor.Actor, notes string, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if !r.IsBlocked {
		return ErrNotBlocked
	}
	if r.Source() == SourceWarehouse && !r.IsPicked {
		// Blocked before the pick: the warehouse still has to pick it.
		if err := r.moveTo(StatusPending, at); err != nil {
			return err
		}
		r.IsBlocked = false
		r.BlockReason = ""
		r.ProcurementNotes = notes
		return nil
	}
	return r.resolve(a, notes, at)
}

func (r *Reservation) resolve(a actor.Actor, notes string, at time.Time) error {
	if err := r.moveTo(StatusProcurementResolved, at); err != nil {
		return err
	}
	r.ProcurementResolved = true
	r.ProcurementResolvedAt = &at
	r.ProcurementNotes = notes
	r.IsBlocked = false
	r.BlockReason = ""
	return nil
}

// Retire soft-deletes a blocked reservation that is being replaced. The row
// keeps its id so the replacement can point at it.
func (r *Reservation) Retire(a actor.Actor, notes string, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if !r.IsBlocked {
		return ErrNotBlocked
	}
	if err := r.moveTo(StatusProcurementResolved, at); err != nil {
		return err
	}
	r.Retired = true
	r.RetiredAt = &at
	r.Quantity = 0
	r.IsBlocked = false
	r.ProcurementResolved = false
	r.ProcurementNotes = notes
	return nil
}

// Reduce hands qty of a blocked reservation over to a replacement. The rest
// stays live and blocked until procurement decides on it.
func (r *Reservation) Reduce(qty int, notes string, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if !r.IsBlocked {
		return ErrNotBlocked
	}
	if qty <= 0 || qty >= r.Quantity {
		return ErrInvalidQuantity.WithDetail("reduce by %d of %d", qty, r.Quantity)
	}
	r.Quantity -= qty
	r.ProcurementNotes = notes
	r.UpdatedAt = at
	return nil
}

// Replacement builds the sibling that takes over a retired reservation's
// quantity. Call before Retire zeroes the quantity, or pass qty explicitly.
func (r *Reservation) Replacement(qty int, warehouseID, supplierID *uuid.UUID, days int, supplierConfirmed bool, now time.Time) (*Reservation, error) {
	var (
		next *Reservation
		err  error
	)
	switch {
	case warehouseID != nil && supplierID == nil:
		next, err = NewWarehouseReservation(r.RequestID, r.ProductID, *warehouseID, qty, days, now)
	case supplierID != nil && warehouseID == nil:
		next, err = NewSupplierReservation(r.RequestID, r.ProductID, *supplierID, qty, days, supplierConfirmed, now)
	default:
		return nil, ErrInvalidSource
	}
	if err != nil {
		return nil, err
	}
	parent := r.ID
	next.ReplacesID = &parent
	return next, nil
}

// ConfirmSupplier records the supplier's availability confirmation.
func (r *Reservation) ConfirmSupplier(a actor.Actor, at time.Time) error {
	if r.Retired {
		return ErrRetired
	}
	if r.Source() != SourceSupplier {
		return ErrNotSupplierSource
	}
	if r.Status == StatusSupplierConfirmed {
		return ErrAlreadyConfirmed
	}
	if err := r.moveTo(StatusSupplierConfirmed, at); err != nil {
		return err
	}
	r.SupplierConfirmedAt = &at
	return nil
}

// Block takes a reservation out of readiness until procurement acts.
func (r *Reservation) Block(reason string, at time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if err := r.moveTo(StatusBlocked, at); err != nil {
		return err
	}
	r.IsBlocked = true
	r.BlockReason = reason
	r.ProcurementResolved = false
	return nil
}

// ResetForReinspection sends a flagged reservation back to the warehouse for
// a new pick and photo.
func (r *Reservation) ResetForReinspection(at time.Time) error {
	if r.Source() != SourceWarehouse {
		return ErrNotWarehouseSource
	}
	if err := r.moveTo(StatusPending, at); err != nil {
		return err
	}
	r.IsPicked = false
	r.PickedAt = nil
	r.PickedBy = nil
	r.AIConfirmed = false
	r.AIConfirmedAt = nil
	r.IsBlocked = false
	r.BlockReason = ""
	return nil
}

// ForceReady is the administrative escape hatch for stuck reservations.
func (r *Reservation) ForceReady(a actor.Actor, reason string, at time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if r.Status == StatusReady && !r.Retired {
		return ErrAlreadyReady
	}
	if err := r.moveTo(StatusReady, at); err != nil {
		return err
	}
	r.IsBlocked = false
	r.BlockReason = ""
	r.ForceReadyReason = reason
	r.ForcedBy = a.UserRef()
	if r.Source() == SourceWarehouse && !r.IsPicked {
		// Readiness for a warehouse source needs the pick flag.
		r.IsPicked = true
		r.PickedAt = &at
		r.PickedBy = a.UserRef()
	}
	return nil
}
