package model

import "fulfillment-backend/internal/shared/apperror"

var (
	ErrRequestNotFound   = apperror.NotFound("REQUEST_NOT_FOUND", "request not found")
	ErrInvalidTransition = apperror.WrongState("INVALID_REQUEST_TRANSITION", "request status transition not allowed")
	ErrNotSourcing       = apperror.WrongState("REQUEST_NOT_SOURCING", "request is not accepting reservation changes")
	ErrNotOwner          = apperror.WrongRole("NOT_REQUEST_OWNER", "request belongs to another dealer")
	ErrNoRecommendation  = apperror.WrongState("NO_RECOMMENDATION", "request has no sourcing recommendation yet")
	ErrNotAwaitingReview = apperror.WrongState("NOT_AWAITING_APPROVAL", "request is not awaiting procurement approval")
	ErrInvalidRequest    = apperror.Validation("INVALID_REQUEST", "invalid request")
	ErrNotAssigned       = apperror.WrongRole("WAREHOUSE_NOT_ASSIGNED", "no reservation of this request is held by your warehouse")
)
