package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	"fulfillment-backend/internal/shared/apperror"
)

// Action is one of the procurement manager's resolutions.
type Action string

const (
	ActionAcceptDamage    Action = "accept_damage"
	ActionReplace         Action = "replace"
	ActionReject          Action = "reject"
	ActionRequestReupload Action = "request_reupload"
	ActionApprove         Action = "approve"
	ActionForceReady      Action = "force_ready"
)

var Actions = []Action{
	ActionAcceptDamage, ActionReplace, ActionReject, ActionRequestReupload, ActionApprove, ActionForceReady,
}

// NeedsReservation reports whether the action targets a single reservation.
func (a Action) NeedsReservation() bool {
	return a != ActionApprove
}

// ResolveRequest is one procurement action. For replace, Quantity moves only
// part of the reservation; zero means all of it.
type ResolveRequest struct {
	Action        Action `json:"action"`
	ReservationID string `json:"reservation_id,omitempty"`
	WarehouseID   string `json:"warehouse_id,omitempty"`
	SupplierID    string `json:"supplier_id,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func (r ResolveRequest) Validate() error {
	actions := make([]interface{}, len(Actions))
	for i, a := range Actions {
		actions[i] = a
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Action, validation.Required, validation.In(actions...)),
		validation.Field(&r.ReservationID,
			validation.When(r.Action.NeedsReservation(), validation.Required),
			validation.By(optionalUUID)),
		validation.Field(&r.WarehouseID,
			validation.When(r.Action == ActionReplace && r.SupplierID == "", validation.Required.Error("warehouse_id or supplier_id is required")),
			validation.When(r.SupplierID != "", validation.Empty.Error("give either warehouse_id or supplier_id")),
			validation.By(optionalUUID)),
		validation.Field(&r.SupplierID, validation.By(optionalUUID)),
		validation.Field(&r.Quantity,
			validation.Min(0),
			validation.When(r.Action != ActionReplace, validation.Empty.Error("quantity only applies to replace"))),
		validation.Field(&r.Notes,
			validation.When(r.Action == ActionReject || r.Action == ActionForceReady, validation.Required),
			validation.Length(0, 1000)),
	)
}

// Target returns the parsed replacement source ids.
func (r ResolveRequest) Target() (warehouseID, supplierID *uuid.UUID) {
	if id, err := uuid.Parse(r.WarehouseID); err == nil {
		warehouseID = &id
	}
	if id, err := uuid.Parse(r.SupplierID); err == nil {
		supplierID = &id
	}
	return warehouseID, supplierID
}

func optionalUUID(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}

// Issue is a request that needs a procurement decision.
type Issue struct {
	Request requestModel.Request           `json:"request"`
	Blocked []reservationModel.Reservation `json:"blocked_reservations"`
}

// Resolution reports what an action changed.
type Resolution struct {
	Action      Action                         `json:"action"`
	Request     *requestModel.Request          `json:"request"`
	Reservation *reservationModel.Reservation  `json:"reservation,omitempty"`
	Replacement *reservationModel.Reservation  `json:"replacement,omitempty"`
	Created     []reservationModel.Reservation `json:"created,omitempty"`
}

type ReplacementOptions struct {
	RequestID uuid.UUID                   `json:"request_id"`
	Local     []stockModel.WarehouseStock `json:"local_options"`
	Import    []supplierModel.Offer       `json:"import_options"`
}

var (
	ErrInvalidAction      = apperror.Validation("INVALID_RESOLUTION", "invalid procurement resolution")
	ErrWrongRequest       = apperror.Validation("RESERVATION_NOT_IN_REQUEST", "reservation belongs to another request")
	ErrSameSource         = apperror.Validation("REPLACEMENT_SAME_SOURCE", "replacement must use a different source")
	ErrReplaceQuantity    = apperror.Validation("INVALID_REPLACE_QUANTITY", "replace quantity exceeds the reservation")
	ErrReuploadNotAllowed = apperror.WrongState("REUPLOAD_NOT_ALLOWED", "re-upload is only possible after a damaged or low confidence verdict")
	ErrNotAwaitingReview  = requestModel.ErrNotAwaitingReview
)
