package service

import (
	"context"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/procurement/model"
	"fulfillment-backend/internal/shared/actor"
)

// Service is the procurement manager's desk: blocked orders, orders waiting
// for approval, and the actions that resolve them.
type Service interface {
	// ListIssues returns requests that are blocked, partially blocked or
	// awaiting approval, newest first, with their blocked reservations.
	ListIssues(ctx context.Context, a actor.Actor) ([]model.Issue, error)

	// Resolve applies one action to a request. Completion is re-checked
	// after every successful action.
	Resolve(ctx context.Context, a actor.Actor, requestID uuid.UUID, req model.ResolveRequest) (*model.Resolution, error)

	// ReplacementOptions lists warehouses and suppliers that could take over a
	// blocked reservation, excluding the sources currently blocked.
	ReplacementOptions(ctx context.Context, a actor.Actor, requestID uuid.UUID) (*model.ReplacementOptions, error)
}
