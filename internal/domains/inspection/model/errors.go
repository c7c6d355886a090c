package model

import "fulfillment-backend/internal/shared/apperror"

var (
	ErrInspectionNotFound = apperror.NotFound("INSPECTION_NOT_FOUND", "inspection not found")
	ErrStillProcessing    = apperror.WrongState("INSPECTION_PROCESSING", "inspection is still being processed")
	ErrInvalidVerdict     = apperror.Validation("INVALID_VERDICT", "verdict must be OK, DAMAGED, EXPIRED or LOW_CONFIDENCE")
	ErrInvalidOverride    = apperror.Validation("INVALID_OVERRIDE", "override needs a final verdict and a reason")
	ErrInvalidImage       = apperror.Validation("INVALID_IMAGE", "image must be a png, jpeg or webp file")
	ErrInvalidImageKind   = apperror.Validation("INVALID_IMAGE_KIND", "image kind must be package, label, contents or damage")
	ErrNotPicked          = apperror.WrongState("RESERVATION_NOT_PICKED", "reservation must be picked before inspection")
	ErrImageStorage       = apperror.New(apperror.KindClassifier, "IMAGE_STORAGE_FAILED", "could not store inspection image")
)
