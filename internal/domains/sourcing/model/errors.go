package model

import "fulfillment-backend/internal/shared/apperror"

var (
	ErrInvalidQuantity = apperror.Validation("INVALID_QUANTITY", "requested quantity must be positive")
	ErrMissingProduct  = apperror.Validation("MISSING_PRODUCT", "product id is required")
	ErrEmptyPlan       = apperror.Validation("EMPTY_PLAN", "plan has no lines to commit")
	ErrInvalidLine     = apperror.Validation("INVALID_PLAN_LINE", "plan line is invalid")
	ErrNotCommittable  = apperror.WrongState("REQUEST_NOT_COMMITTABLE", "request cannot be committed in its current status")
)
