package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
)

// LockReservation locks the owning request first, then the reservation, and
// checks the request still accepts reservation changes. Every reservation
// mutation goes through here so work on one order is serialized.
func LockReservation(ctx context.Context, tx Tx, reservationID uuid.UUID) (*requestModel.Request, *reservationModel.Reservation, error) {
	peek, err := tx.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	req, err := tx.Requests().GetForUpdate(ctx, peek.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if !req.Status.IsSourcing() {
		return nil, nil, requestModel.ErrNotSourcing.WithDetail("request is %s", req.Status)
	}
	res, err := tx.Reservations().GetForUpdate(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	return req, res, nil
}

// MoveRequest transitions the request when allowed and records history.
// Disallowed or no-op moves are skipped silently.
func MoveRequest(ctx context.Context, tx Tx, req *requestModel.Request, to requestModel.Status, by *uuid.UUID, reason string, at time.Time) error {
	if req.Status == to || !requestModel.CanTransition(req.Status, to) {
		return nil
	}
	h, err := req.Transition(to, by, reason, at)
	if err != nil {
		return err
	}
	if err := tx.Requests().Update(ctx, req); err != nil {
		return err
	}
	return tx.Requests().AddHistory(ctx, h)
}
