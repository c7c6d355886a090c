package model

import "fulfillment-backend/internal/shared/apperror"

var (
	ErrReservationNotFound = apperror.NotFound("RESERVATION_NOT_FOUND", "reservation not found")

	ErrAlreadyPicked      = apperror.WrongState("ALREADY_PICKED", "reservation already picked")
	ErrAlreadyConfirmed   = apperror.WrongState("ALREADY_CONFIRMED", "supplier reservation already confirmed")
	ErrAlreadyReady       = apperror.WrongState("ALREADY_READY", "reservation already ready")
	ErrRetired            = apperror.WrongState("RESERVATION_RETIRED", "reservation has been replaced")
	ErrInvalidTransition  = apperror.WrongState("INVALID_RESERVATION_TRANSITION", "reservation transition not allowed")
	ErrNotWarehouseSource = apperror.WrongState("NOT_WAREHOUSE_SOURCE", "operation requires a warehouse reservation")
	ErrNotSupplierSource  = apperror.WrongState("NOT_SUPPLIER_SOURCE", "operation requires a supplier reservation")
	ErrNotBlocked         = apperror.WrongState("NOT_BLOCKED", "reservation is not blocked")

	ErrReasonRequired  = apperror.Validation("REASON_REQUIRED", "a reason is required")
	ErrInvalidOutcome  = apperror.Validation("INVALID_OUTCOME", "unknown inspection outcome")
	ErrInvalidQuantity = apperror.Validation("INVALID_QUANTITY", "reservation quantity must be positive")
	ErrInvalidSource   = apperror.Validation("INVALID_SOURCE", "reservation needs exactly one of warehouse or supplier")
)
