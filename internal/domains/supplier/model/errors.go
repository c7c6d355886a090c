package model

import "fulfillment-backend/internal/shared/apperror"

var (
	ErrSupplierNotFound = apperror.NotFound("SUPPLIER_NOT_FOUND", "supplier not found")
	ErrOfferNotFound    = apperror.NotFound("SUPPLIER_OFFER_NOT_FOUND", "supplier does not offer this product")

	// ErrSupplierShort is raised when a supplier no longer has the planned quantity.
	ErrSupplierShort = apperror.Conflict("INSUFFICIENT_STOCK", "insufficient supplier availability")
)

var ErrInvalidSupplier = apperror.Validation("INVALID_SUPPLIER", "invalid supplier")
