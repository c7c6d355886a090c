package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	completion "fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/domains/procurement/model"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	sourcingModel "fulfillment-backend/internal/domains/sourcing/model"
	sourcing "fulfillment-backend/internal/domains/sourcing/service"
	stockModel "fulfillment-backend/internal/domains/stock/model"
	supplierModel "fulfillment-backend/internal/domains/supplier/model"
	warehouseModel "fulfillment-backend/internal/domains/warehouse/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/logger"
)

const issueListLimit = 100

var issueStatuses = []requestModel.Status{
	requestModel.StatusBlocked,
	requestModel.StatusPartiallyBlocked,
	requestModel.StatusAwaitingProcurementApproval,
}

type procurementService struct {
	store       store.Store
	sourcing    sourcing.Service
	options     sourcingModel.Options
	autoConfirm supplierModel.AutoConfirm
	completion  completion.Trigger
}

func NewProcurementService(
	st store.Store,
	sourcingSvc sourcing.Service,
	options sourcingModel.Options,
	autoConfirm supplierModel.AutoConfirm,
	trigger completion.Trigger,
) Service {
	return &procurementService{
		store:       st,
		sourcing:    sourcingSvc,
		options:     options,
		autoConfirm: autoConfirm,
		completion:  trigger,
	}
}

func (s *procurementService) ListIssues(ctx context.Context, a actor.Actor) ([]model.Issue, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	read := s.store.Read()
	requests, _, err := read.Requests().List(ctx, requestModel.ListFilter{
		Statuses: issueStatuses,
		Limit:    issueListLimit,
	})
	if err != nil {
		return nil, err
	}

	issues := make([]model.Issue, 0, len(requests))
	for _, req := range requests {
		all, err := read.Reservations().ListByRequest(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		blocked := []reservationModel.Reservation{}
		for _, r := range reservationModel.Live(all) {
			if r.IsBlocked {
				blocked = append(blocked, r)
			}
		}
		issues = append(issues, model.Issue{Request: req, Blocked: blocked})
	}
	return issues, nil
}

func (s *procurementService) Resolve(ctx context.Context, a actor.Actor, requestID uuid.UUID, in model.ResolveRequest) (*model.Resolution, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if err := in.Validate(); err != nil {
		return nil, model.ErrInvalidAction.WithDetail("%v", err)
	}

	var (
		out *model.Resolution
		err error
	)
	if in.Action == model.ActionApprove {
		out, err = s.approve(ctx, a, requestID)
	} else {
		out, err = s.resolveReservation(ctx, a, requestID, in)
	}
	if err != nil {
		logger.ErrorWithFields("procurement action failed", err, map[string]interface{}{
			"request_id": requestID.String(),
			"action":     in.Action,
			"actor":      a.String(),
		})
		return nil, err
	}

	logger.Info("procurement action applied", map[string]interface{}{
		"request_id":     requestID.String(),
		"action":         in.Action,
		"reservation_id": in.ReservationID,
	})

	if s.completion != nil {
		s.completion.Trigger(ctx, requestID)
	}
	// Re-read so the caller sees the status the completion check settled on.
	if req, err := s.store.Read().Requests().GetByID(ctx, requestID); err == nil {
		out.Request = req
	}
	return out, nil
}

func (s *procurementService) approve(ctx context.Context, a actor.Actor, requestID uuid.UUID) (*model.Resolution, error) {
	req, err := s.store.Read().Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != requestModel.StatusAwaitingProcurementApproval {
		return nil, model.ErrNotAwaitingReview.WithDetail("request is %s", req.Status)
	}
	created, err := s.sourcing.Commit(ctx, a, requestID, nil)
	if err != nil {
		return nil, err
	}
	return &model.Resolution{Action: model.ActionApprove, Request: req, Created: created}, nil
}

func (s *procurementService) resolveReservation(ctx context.Context, a actor.Actor, requestID uuid.UUID, in model.ResolveRequest) (*model.Resolution, error) {
	reservationID, err := uuid.Parse(in.ReservationID)
	if err != nil {
		return nil, model.ErrInvalidAction.WithDetail("reservation_id: %v", err)
	}

	out := &model.Resolution{Action: in.Action}
	err = s.store.RunInTx(ctx, func(tx store.Tx) error {
		out.Replacement = nil

		req, res, err := store.LockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if req.ID != requestID {
			return model.ErrWrongRequest
		}
		now := time.Now()

		switch in.Action {
		case model.ActionAcceptDamage:
			err = res.Resolve(a, in.Notes, now)
		case model.ActionReject:
			err = s.reject(ctx, tx, res, in.Notes, now)
		case model.ActionRequestReupload:
			switch res.Status {
			case reservationModel.StatusAIDamaged, reservationModel.StatusAILowConfidence:
				err = res.ResetForReinspection(now)
			default:
				err = model.ErrReuploadNotAllowed.WithDetail("reservation is %s", res.Status)
			}
		case model.ActionForceReady:
			err = res.ForceReady(a, in.Notes, now)
		case model.ActionReplace:
			out.Replacement, err = s.replace(ctx, tx, a, req, res, in, now)
		default:
			err = model.ErrInvalidAction.WithDetail("unknown action %q", in.Action)
		}
		if err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}
		if in.Notes != "" {
			req.ProcurementNotes = in.Notes
			req.UpdatedAt = now
			if err := tx.Requests().Update(ctx, req); err != nil {
				return err
			}
		}
		out.Reservation = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reject blocks the reservation. A supplier that lets an order down loses
// earned trust through its issue count.
func (s *procurementService) reject(ctx context.Context, tx store.Tx, res *reservationModel.Reservation, notes string, now time.Time) error {
	if err := res.Block(notes, now); err != nil {
		return err
	}
	if res.Source() == reservationModel.SourceSupplier {
		return tx.Suppliers().RecordIssue(ctx, *res.SupplierID)
	}
	return nil
}

// replace moves the blocked reservation's quantity, or in.Quantity of it, to a
// sibling at another source. A full move retires the original; a partial one
// leaves the rest live and blocked. Stock held for the moved units is given back.
func (s *procurementService) replace(
	ctx context.Context,
	tx store.Tx,
	a actor.Actor,
	req *requestModel.Request,
	res *reservationModel.Reservation,
	in model.ResolveRequest,
	now time.Time,
) (*reservationModel.Reservation, error) {
	if !res.IsBlocked {
		return nil, reservationModel.ErrNotBlocked
	}
	qty := res.Quantity
	if in.Quantity > 0 {
		if in.Quantity > res.Quantity {
			return nil, model.ErrReplaceQuantity.WithDetail("requested %d, reservation holds %d", in.Quantity, res.Quantity)
		}
		qty = in.Quantity
	}
	warehouseID, supplierID := in.Target()
	if (warehouseID != nil && res.WarehouseID != nil && *warehouseID == *res.WarehouseID) ||
		(supplierID != nil && res.SupplierID != nil && *supplierID == *res.SupplierID) {
		return nil, model.ErrSameSource
	}

	var (
		next *reservationModel.Reservation
		err  error
	)
	if res.Source() == reservationModel.SourceWarehouse {
		if err := store.ReleaseStock(ctx, tx, *res.WarehouseID, res.ProductID, qty); err != nil {
			return nil, err
		}
	}

	switch {
	case warehouseID != nil:
		wh, err := tx.Warehouses().GetByID(ctx, *warehouseID)
		if err != nil {
			return nil, err
		}
		if !wh.IsActive {
			return nil, warehouseModel.ErrWarehouseInactive
		}
		if err := store.ReserveStock(ctx, tx, wh.ID, res.ProductID, qty); err != nil {
			return nil, err
		}
		days := s.options.OtherCityDays
		if wh.SameCity(req.DeliveryCity) {
			days = s.options.SameCityDays
		}
		next, err = res.Replacement(qty, &wh.ID, nil, days, false, now)
		if err != nil {
			return nil, err
		}

	case supplierID != nil:
		offer, err := tx.Suppliers().LockOffer(ctx, *supplierID, res.ProductID)
		if err != nil {
			return nil, err
		}
		if !offer.Item.IsActive || !offer.Supplier.IsActive || offer.Item.AvailableQuantity < qty {
			return nil, supplierModel.ErrSupplierShort.WithDetail("requested %d, available %d",
				qty, offer.Item.AvailableQuantity)
		}
		confirmed := s.autoConfirm.Decide(supplierModel.CreatedManually, offer.Supplier)
		next, err = res.Replacement(qty, nil, supplierID, offer.LeadTimeDays(), confirmed, now)
		if err != nil {
			return nil, err
		}

	default:
		return nil, model.ErrInvalidAction.WithDetail("replace needs warehouse_id or supplier_id")
	}

	notes := in.Notes
	if notes == "" {
		notes = fmt.Sprintf("replaced by %s %s", next.Source(), next.SourceID())
	}
	if qty < res.Quantity {
		err = res.Reduce(qty, notes, now)
	} else {
		err = res.Retire(a, notes, now)
	}
	if err != nil {
		return nil, err
	}
	if err = tx.Reservations().Create(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *procurementService) ReplacementOptions(ctx context.Context, a actor.Actor, requestID uuid.UUID) (*model.ReplacementOptions, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	read := s.store.Read()
	req, err := read.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	all, err := read.Reservations().ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[uuid.UUID]bool)
	for _, r := range reservationModel.Live(all) {
		if r.IsBlocked {
			excluded[r.SourceID()] = true
		}
	}

	warehouses, err := read.Stocks().ListAvailableByProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	offers, err := read.Suppliers().ListOffersByProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	out := &model.ReplacementOptions{
		RequestID: requestID,
		Local:     []stockModel.WarehouseStock{},
		Import:    []supplierModel.Offer{},
	}
	for _, w := range warehouses {
		if !excluded[w.Warehouse.ID] {
			out.Local = append(out.Local, w)
		}
	}
	for _, o := range offers {
		if !excluded[o.Supplier.ID] {
			out.Import = append(out.Import, o)
		}
	}
	return out, nil
}
