package model

import "fulfillment-backend/internal/shared/apperror"

var (
	ErrStockNotFound = apperror.NotFound("STOCK_NOT_FOUND", "no stock for product in warehouse")

	// ErrInsufficientStock is retryable: another commit consumed the stock between plan and commit.
	ErrInsufficientStock = apperror.Conflict("INSUFFICIENT_STOCK", "insufficient stock available")

	ErrInvalidQuantity = apperror.Validation("INVALID_QUANTITY", "quantity must be positive")
	ErrInvalidStock    = apperror.Validation("INVALID_STOCK", "invalid stock count")
)
