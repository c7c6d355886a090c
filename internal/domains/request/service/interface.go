package service

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	sourcingModel "fulfillment-backend/internal/domains/sourcing/model"
	"fulfillment-backend/internal/shared/actor"
)

// Service drives a request through its lifecycle. Reservation-level changes
// live in the reservation, inspection and procurement services.
type Service interface {
	Create(ctx context.Context, a actor.Actor, req model.CreateRequest) (*model.Request, error)
	Get(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, a actor.Actor, q model.ListQuery) (*model.ListResponse, error)
	History(ctx context.Context, a actor.Actor, id uuid.UUID) ([]model.StatusHistory, error)

	Recommend(ctx context.Context, a actor.Actor, id uuid.UUID) (*sourcingModel.Plan, error)
	// Confirm commits the current plan on behalf of the dealer.
	Confirm(ctx context.Context, a actor.Actor, id uuid.UUID) ([]reservationModel.Reservation, error)
	SendToProcurement(ctx context.Context, a actor.Actor, id uuid.UUID, notes string) (*model.Request, error)
	Approve(ctx context.Context, a actor.Actor, id uuid.UUID) ([]reservationModel.Reservation, error)

	// Cancel gives back stock held by live warehouse reservations.
	Cancel(ctx context.Context, a actor.Actor, id uuid.UUID, reason string) (*model.Request, error)

	StartPicking(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error)
	Allocate(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error)
	Dispatch(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error)

	// Complete deducts shipped stock for every live, unblocked warehouse reservation.
	Complete(ctx context.Context, a actor.Actor, id uuid.UUID) (*model.Request, error)
}
