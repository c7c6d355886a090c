package repository

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/request/model"
)

// Repository is the data access contract for product_requests and its history.
type Repository interface {
	Create(ctx context.Context, r *model.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error)

	// GetForUpdate locks the request row. Every reservation mutation takes this
	// lock first, which serializes work on one order.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error)

	// Update writes status, recommendation, notes and timestamps, bumping version.
	Update(ctx context.Context, r *model.Request) error

	List(ctx context.Context, filter model.ListFilter) ([]model.Request, int, error)

	AddHistory(ctx context.Context, h *model.StatusHistory) error
	ListHistory(ctx context.Context, requestID uuid.UUID) ([]model.StatusHistory, error)
}
