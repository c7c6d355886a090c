package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	completion "fulfillment-backend/internal/domains/completion/service"
	requestModel "fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/logger"
)

type reservationService struct {
	store      store.Store
	completion completion.Trigger
}

func NewReservationService(st store.Store, trigger completion.Trigger) Service {
	return &reservationService{store: st, completion: trigger}
}

func (s *reservationService) Pick(ctx context.Context, a actor.Actor, reservationID uuid.UUID) (*model.Reservation, error) {
	if err := a.Require(actor.RoleWarehouseOperator, actor.RoleAdmin); err != nil {
		return nil, err
	}

	var out *model.Reservation
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		req, res, err := store.LockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.Source() != model.SourceWarehouse {
			return model.ErrNotWarehouseSource
		}
		if err := a.RequireWarehouse(*res.WarehouseID); err != nil {
			return err
		}

		now := time.Now()
		if err := res.Pick(a, now); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		if req.Status == requestModel.StatusReserved {
			if err := store.MoveRequest(ctx, tx, req, requestModel.StatusPicking, a.UserRef(), "picking started", now); err != nil {
				return err
			}
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("reservation picked", map[string]interface{}{
		"reservation_id": out.ID.String(),
		"request_id":     out.RequestID.String(),
		"actor":          a.String(),
	})
	s.trigger(ctx, out.RequestID)
	return out, nil
}

func (s *reservationService) ConfirmSupplier(ctx context.Context, a actor.Actor, reservationID uuid.UUID) (*model.Reservation, error) {
	if err := a.Require(actor.RoleSupplier, actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}

	var out *model.Reservation
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		_, res, err := store.LockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if res.Source() != model.SourceSupplier {
			return model.ErrNotSupplierSource
		}
		if err := a.RequireSupplier(*res.SupplierID); err != nil {
			return err
		}
		if err := res.ConfirmSupplier(a, time.Now()); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("supplier reservation confirmed", map[string]interface{}{
		"reservation_id": out.ID.String(),
		"request_id":     out.RequestID.String(),
		"actor":          a.String(),
	})
	s.trigger(ctx, out.RequestID)
	return out, nil
}

func (s *reservationService) Get(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	return s.store.Read().Reservations().GetByID(ctx, reservationID)
}

func (s *reservationService) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Reservation, error) {
	read := s.store.Read()
	if _, err := read.Requests().GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	list, err := read.Reservations().ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Reservation{}
	}
	return list, nil
}

func (s *reservationService) Lineage(ctx context.Context, reservationID uuid.UUID) ([]model.Reservation, error) {
	read := s.store.Read()
	res, err := read.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	all, err := read.Reservations().ListByRequest(ctx, res.RequestID)
	if err != nil {
		return nil, err
	}
	return model.Lineage(all, reservationID), nil
}

func (s *reservationService) trigger(ctx context.Context, requestID uuid.UUID) {
	if s.completion != nil {
		s.completion.Trigger(ctx, requestID)
	}
}
