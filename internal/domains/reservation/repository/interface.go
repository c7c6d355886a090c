package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/reservation/model"
)

// StaleFilter selects live warehouse reservations that nobody picked in time.
type StaleFilter struct {
	CreatedBefore time.Time
	Limit         int
}

// Repository is the data access contract for the reservations table.
type Repository interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)

	// GetForUpdate locks the reservation row until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Reservation, error)

	// Update writes every mutable column and bumps version. A stale version
	// returns apperror.ErrConcurrent.
	Update(ctx context.Context, r *model.Reservation) error

	// ListByRequest returns every reservation of a request, retired ones
	// included, oldest first.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Reservation, error)

	ListStale(ctx context.Context, f StaleFilter) ([]model.Reservation, error)
}
