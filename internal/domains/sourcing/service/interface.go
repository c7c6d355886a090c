package service

import (
	"context"

	"github.com/google/uuid"

	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/sourcing/model"
	"fulfillment-backend/internal/shared/actor"
)

type Service interface {
	// Quote plans an arbitrary product/quantity without any request.
	Quote(ctx context.Context, productID uuid.UUID, quantity int, deliveryCity string) (*model.Plan, error)

	// Preview plans for an existing request and persists nothing.
	Preview(ctx context.Context, requestID uuid.UUID) (*model.Plan, error)

	// Recommend stores the plan summary on the request and moves it to
	// AWAITING_RECOMMENDATION.
	Recommend(ctx context.Context, a actor.Actor, requestID uuid.UUID) (*model.Plan, error)

	// Commit reserves stock and creates one reservation per plan line in a
	// single transaction. A nil plan is recomputed under the same transaction.
	Commit(ctx context.Context, a actor.Actor, requestID uuid.UUID, plan *model.Plan) ([]reservationModel.Reservation, error)
}
