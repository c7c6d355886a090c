package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	completion "fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/domains/inspection/classifier"
	"fulfillment-backend/internal/domains/inspection/model"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/pkg/logger"
)

type inspectionService struct {
	store      store.Store
	images     ImageStore
	processor  ImageProcessor
	classifier classifier.Classifier
	completion completion.Trigger
}

func NewInspectionService(
	st store.Store,
	images ImageStore,
	processor ImageProcessor,
	c classifier.Classifier,
	trigger completion.Trigger,
) Service {
	return &inspectionService{
		store:      st,
		images:     images,
		processor:  processor,
		classifier: c,
		completion: trigger,
	}
}

// Submit runs in two transactions with the classifier call between them, so
// no row lock is held while the model is working.
func (s *inspectionService) Submit(ctx context.Context, a actor.Actor, in SubmitInput) (*model.Inspection, error) {
	if err := a.Require(actor.RoleWarehouseOperator, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Kind == "" {
		in.Kind = model.ImagePackage
	}
	if !in.Kind.IsValid() {
		return nil, model.ErrInvalidImageKind
	}
	contentType, err := s.processor.ValidateImage(in.Image)
	if err != nil {
		return nil, model.ErrInvalidImage.WithDetail("%v", err)
	}

	res, err := s.store.Read().Reservations().GetByID(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.Source() != reservationModel.SourceWarehouse {
		return nil, reservationModel.ErrNotWarehouseSource
	}
	if err := a.RequireWarehouse(*res.WarehouseID); err != nil {
		return nil, err
	}
	if !res.IsPicked {
		return nil, model.ErrNotPicked
	}

	now := time.Now()
	insp := &model.Inspection{
		ID:            uuid.New(),
		RequestID:     res.RequestID,
		ReservationID: res.ID,
		UploadedBy:    a.UserID,
		ImageKind:     in.Kind,
		ContentType:   contentType,
		SizeBytes:     int64(len(in.Image)),
		Verdict:       model.VerdictProcessing,
		CreatedAt:     now,
	}
	insp.ImageKey = fmt.Sprintf("inspections/%s/%s/%s.%s",
		res.RequestID, res.ID, insp.ID, strings.TrimPrefix(contentType, "image/"))

	if err := s.images.Upload(ctx, insp.ImageKey, in.Image, contentType); err != nil {
		logger.ErrorWithFields("failed to store inspection image", err, map[string]interface{}{
			"reservation_id": res.ID.String(),
			"key":            insp.ImageKey,
		})
		return nil, model.ErrImageStorage.Wrap(err)
	}

	err = s.store.RunInTx(ctx, func(tx store.Tx) error {
		req, locked, err := store.LockReservation(ctx, tx, in.ReservationID)
		if err != nil {
			return err
		}
		if !locked.IsPicked {
			return model.ErrNotPicked
		}
		if err := tx.Inspections().Create(ctx, insp); err != nil {
			return err
		}
		if req.Status == requestModel.StatusPicking || req.Status == requestModel.StatusReserved {
			return store.MoveRequest(ctx, tx, req, requestModel.StatusInspectionPending, a.UserRef(), "inspection uploaded", now)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, insp.ImageKey)
		return nil, err
	}

	result := s.classify(ctx, insp, in.Image, contentType)

	err = s.store.RunInTx(ctx, func(tx store.Tx) error {
		stored, err := tx.Inspections().GetByID(ctx, insp.ID)
		if err != nil {
			return err
		}
		stored.Record(result, time.Now())
		if err := tx.Inspections().Update(ctx, stored); err != nil {
			return err
		}
		*insp = *stored

		outcome, ok := result.Verdict.Outcome()
		if !ok {
			return nil
		}
		_, locked, err := store.LockReservation(ctx, tx, insp.ReservationID)
		if errors.Is(err, requestModel.ErrNotSourcing) {
			// The order moved on while the classifier ran; keep the record only.
			return nil
		}
		if err != nil {
			return err
		}
		if !locked.AcceptsVerdict() {
			return nil
		}
		if err := locked.ApplyVerdict(outcome, time.Now()); err != nil {
			return err
		}
		return tx.Reservations().Update(ctx, locked)
	})
	if err != nil {
		s.recordFailure(ctx, insp.ID, err)
		return nil, err
	}

	logger.Info("inspection processed", map[string]interface{}{
		"inspection_id":  insp.ID.String(),
		"reservation_id": insp.ReservationID.String(),
		"verdict":        string(insp.Verdict),
		"confidence":     insp.Confidence,
	})
	s.trigger(ctx, insp.RequestID)
	return insp, nil
}

// classify never fails: provider errors become an ERROR verdict that leaves
// the reservation untouched.
func (s *inspectionService) classify(ctx context.Context, insp *model.Inspection, image []byte, contentType string) model.Result {
	data, ct, err := s.processor.PrepareForClassifier(image, contentType)
	if err != nil {
		data, ct = image, contentType
	}
	result, err := s.classifier.Classify(ctx, data, ct, insp.ImageKind)
	if err != nil {
		logger.ErrorWithFields("classifier failed", err, map[string]interface{}{
			"inspection_id": insp.ID.String(),
		})
		return model.Result{Verdict: model.VerdictError, RawResponse: err.Error()}
	}
	return result
}

func (s *inspectionService) Override(ctx context.Context, a actor.Actor, inspectionID uuid.UUID, req model.OverrideRequest) (*model.Inspection, error) {
	if err := a.Require(actor.RoleProcurementManager, actor.RoleAdmin); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, model.ErrInvalidOverride.WithDetail("%v", err)
	}
	verdict, err := model.ParseVerdict(req.Verdict)
	if err != nil {
		return nil, model.ErrInvalidVerdict
	}
	outcome, ok := verdict.Outcome()
	if !ok {
		return nil, model.ErrInvalidVerdict
	}

	var out *model.Inspection
	err = s.store.RunInTx(ctx, func(tx store.Tx) error {
		insp, err := tx.Inspections().GetByID(ctx, inspectionID)
		if err != nil {
			return err
		}
		if insp.Verdict == model.VerdictProcessing {
			return model.ErrStillProcessing
		}
		_, res, err := store.LockReservation(ctx, tx, insp.ReservationID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := res.ApplyOverride(a, outcome, req.Reason, now); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}

		insp.OverrideVerdict = &verdict
		insp.OverrideReason = req.Reason
		insp.OverriddenBy = a.UserRef()
		insp.OverriddenAt = &now
		if err := tx.Inspections().Update(ctx, insp); err != nil {
			return err
		}
		out = insp
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("inspection overridden", map[string]interface{}{
		"inspection_id": out.ID.String(),
		"verdict":       string(verdict),
		"actor":         a.String(),
	})
	s.trigger(ctx, out.RequestID)
	return out, nil
}

func (s *inspectionService) Get(ctx context.Context, id uuid.UUID) (*model.Inspection, error) {
	return s.store.Read().Inspections().GetByID(ctx, id)
}

func (s *inspectionService) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Inspection, error) {
	read := s.store.Read()
	if _, err := read.Requests().GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	list, err := read.Inspections().ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Inspection{}
	}
	return list, nil
}

func (s *inspectionService) Image(ctx context.Context, a actor.Actor, inspectionID uuid.UUID) ([]byte, string, error) {
	read := s.store.Read()
	insp, err := read.Inspections().GetByID(ctx, inspectionID)
	if err != nil {
		return nil, "", err
	}
	req, err := read.Requests().GetByID(ctx, insp.RequestID)
	if err != nil {
		return nil, "", err
	}
	if err := req.Authorize(a); err != nil {
		return nil, "", err
	}
	data, err := s.images.Download(ctx, insp.ImageKey)
	if err != nil {
		return nil, "", model.ErrImageStorage.Wrap(err)
	}
	return data, insp.ContentType, nil
}

// recordFailure marks an inspection whose verdict could not be saved as ERROR
// so it does not stay PROCESSING.
func (s *inspectionService) recordFailure(ctx context.Context, inspectionID uuid.UUID, cause error) {
	err := s.store.RunInTx(ctx, func(tx store.Tx) error {
		stored, err := tx.Inspections().GetByID(ctx, inspectionID)
		if err != nil {
			return err
		}
		if stored.Verdict != model.VerdictProcessing {
			return nil
		}
		stored.Record(model.Result{
			Verdict:     model.VerdictError,
			RawResponse: fmt.Sprintf("saving verdict failed: %v", cause),
		}, time.Now())
		return tx.Inspections().Update(ctx, stored)
	})
	if err != nil {
		logger.ErrorWithFields("failed to mark inspection as errored", err, map[string]interface{}{
			"inspection_id": inspectionID.String(),
			"cause":         cause.Error(),
		})
	}
}

// discard removes a photo whose inspection row was never written.
func (s *inspectionService) discard(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		logger.ErrorWithFields("failed to delete orphaned inspection image", err, map[string]interface{}{
			"key": key,
		})
	}
}

func (s *inspectionService) trigger(ctx context.Context, requestID uuid.UUID) {
	if s.completion != nil {
		s.completion.Trigger(ctx, requestID)
	}
}
