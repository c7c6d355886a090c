package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	completion "fulfillment-backend/internal/domains/completion/service"
	"fulfillment-backend/internal/domains/inspection/classifier"
	"fulfillment-backend/internal/domains/inspection/model"
	requestModel "fulfillment-backend/internal/domains/request/model"
	reservationModel "fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/infrastructure/storage"
	"fulfillment-backend/internal/shared/actor"
	"fulfillment-backend/internal/shared/apperror"
	"fulfillment-backend/internal/store"
	"fulfillment-backend/internal/store/memory"
)

type fixture struct {
	store    *memory.Store
	images   *storage.MemoryStorage
	request  requestModel.Request
	res      *reservationModel.Reservation
	operator actor.Actor
	manager  actor.Actor
}

func newFixture(t *testing.T, picked bool) *fixture {
	t.Helper()
	st := memory.New()
	seed := st.Seed()
	product := uuid.New()
	wh := seed.Warehouse("Central", "WH-C", "Da Nang")
	status := requestModel.StatusReserved
	if picked {
		status = requestModel.StatusPicking
	}
	req := seed.Request(uuid.New(), product, 10, "Da Nang", status)

	operator := actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator, WarehouseID: &wh.ID}
	res, err := reservationModel.NewWarehouseReservation(req.ID, product, wh.ID, 10, 1, time.Now())
	require.NoError(t, err)
	if picked {
		require.NoError(t, res.Pick(operator, time.Now()))
	}
	seed.Reservation(res)

	return &fixture{
		store:    st,
		images:   storage.NewMemoryStorage(),
		request:  req,
		res:      res,
		operator: operator,
		manager:  actor.Actor{UserID: uuid.New(), Role: actor.RoleProcurementManager},
	}
}

func (f *fixture) service(c classifier.Classifier) Service {
	coord := completion.NewService(f.store, nil, 0, nil, nil)
	return NewInspectionService(f.store, f.images, storage.NewImageProcessor(0), c, coord)
}

func (f *fixture) requestStatus(t *testing.T) requestModel.Status {
	t.Helper()
	req, err := f.store.Read().Requests().GetByID(context.Background(), f.request.ID)
	require.NoError(t, err)
	return req.Status
}

func (f *fixture) reservation(t *testing.T) *reservationModel.Reservation {
	t.Helper()
	res, err := f.store.Read().Reservations().GetByID(context.Background(), f.res.ID)
	require.NoError(t, err)
	return res
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSubmit_PassMakesOrderReady(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictOK, Confidence: 92}})

	insp, err := svc.Submit(context.Background(), f.operator, SubmitInput{
		ReservationID: f.res.ID, Kind: model.ImageLabel, Image: pngImage(t),
	})
	require.NoError(t, err)

	assert.Equal(t, model.VerdictOK, insp.Verdict)
	assert.Equal(t, 92, insp.Confidence)
	assert.Equal(t, "image/png", insp.ContentType)
	assert.NotNil(t, insp.ProcessedAt)

	_, err = f.images.Download(context.Background(), insp.ImageKey)
	assert.NoError(t, err)

	res := f.reservation(t)
	assert.Equal(t, reservationModel.StatusAIConfirmed, res.Status)
	assert.True(t, reservationModel.IsReady(*res))
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.requestStatus(t))

	history, err := f.store.Read().Requests().ListHistory(context.Background(), f.request.ID)
	require.NoError(t, err)
	var sawInspectionPending bool
	for _, h := range history {
		if h.To == requestModel.StatusInspectionPending {
			sawInspectionPending = true
		}
	}
	assert.True(t, sawInspectionPending)
}

func TestSubmit_DamageBlocks(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictDamaged, Confidence: 88, DamageDetected: true}})

	_, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.NoError(t, err)

	res := f.reservation(t)
	assert.Equal(t, reservationModel.StatusAIDamaged, res.Status)
	assert.True(t, res.IsBlocked)
	assert.Equal(t, requestModel.StatusBlocked, f.requestStatus(t))
}

func TestSubmit_ClassifierErrorLeavesReservationUntouched(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Err: errors.New("upstream 503")})

	insp, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.NoError(t, err)

	assert.Equal(t, model.VerdictError, insp.Verdict)
	assert.Contains(t, insp.RawResponse, "upstream 503")

	res := f.reservation(t)
	assert.Equal(t, reservationModel.StatusPicked, res.Status)
	assert.False(t, res.IsBlocked)
	assert.False(t, reservationModel.IsReady(*res))
	assert.NotEqual(t, requestModel.StatusReadyForAllocation, f.requestStatus(t))
}

func TestSubmit_StorageFailure(t *testing.T) {
	f := newFixture(t, true)
	f.images.FailUploads = true
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictOK}})

	_, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrImageStorage)
	assert.Equal(t, apperror.KindClassifier, apperror.KindOf(err))

	list, err := svc.ListByRequest(context.Background(), f.request.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmit_Rejections(t *testing.T) {
	ok := classifier.Static{Result: model.Result{Verdict: model.VerdictOK}}

	t.Run("not picked", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.service(ok).Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
		assert.ErrorIs(t, err, model.ErrNotPicked)
	})

	t.Run("other warehouse", func(t *testing.T) {
		f := newFixture(t, true)
		elsewhere := uuid.New()
		op := actor.Actor{UserID: uuid.New(), Role: actor.RoleWarehouseOperator, WarehouseID: &elsewhere}
		_, err := f.service(ok).Submit(context.Background(), op, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
		assert.ErrorIs(t, err, apperror.ErrSourceMismatch)
	})

	t.Run("dealer", func(t *testing.T) {
		f := newFixture(t, true)
		dealer := actor.Actor{UserID: f.request.DealerID, Role: actor.RoleDealer}
		_, err := f.service(ok).Submit(context.Background(), dealer, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
		assert.ErrorIs(t, err, apperror.ErrForbiddenRole)
	})

	t.Run("not an image", func(t *testing.T) {
		f := newFixture(t, true)
		_, err := f.service(ok).Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: []byte("hello")})
		assert.ErrorIs(t, err, model.ErrInvalidImage)
	})

	t.Run("unknown kind", func(t *testing.T) {
		f := newFixture(t, true)
		_, err := f.service(ok).Submit(context.Background(), f.operator, SubmitInput{
			ReservationID: f.res.ID, Kind: "selfie", Image: pngImage(t),
		})
		assert.ErrorIs(t, err, model.ErrInvalidImageKind)
	})
}

func TestOverride_PassResolvesAndCompletes(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictLowConfidence, Confidence: 55}})

	insp, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.NoError(t, err)
	require.Equal(t, requestModel.StatusBlocked, f.requestStatus(t))

	out, err := svc.Override(context.Background(), f.manager, insp.ID, model.OverrideRequest{
		Verdict: "OK", Reason: "label readable on second look",
	})
	require.NoError(t, err)

	assert.Equal(t, model.VerdictOK, out.Effective())
	assert.Equal(t, model.VerdictLowConfidence, out.Verdict)
	require.NotNil(t, out.OverriddenBy)
	assert.Equal(t, f.manager.UserID, *out.OverriddenBy)

	res := f.reservation(t)
	assert.Equal(t, reservationModel.StatusProcurementResolved, res.Status)
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.requestStatus(t))
}

func TestOverride_DamageBlocksConfirmedReservation(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictOK, Confidence: 90}})

	insp, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.NoError(t, err)
	require.Equal(t, requestModel.StatusReadyForAllocation, f.requestStatus(t))

	// A ready order is never demoted.
	_, err = svc.Override(context.Background(), f.manager, insp.ID, model.OverrideRequest{
		Verdict: "DAMAGED", Reason: "crushed corner",
	})
	assert.ErrorIs(t, err, requestModel.ErrNotSourcing)
	assert.Equal(t, requestModel.StatusReadyForAllocation, f.requestStatus(t))
}

func TestOverride_Validation(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictDamaged}})
	insp, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.NoError(t, err)

	_, err = svc.Override(context.Background(), f.operator, insp.ID, model.OverrideRequest{Verdict: "OK", Reason: "looks fine"})
	assert.ErrorIs(t, err, apperror.ErrForbiddenRole)

	_, err = svc.Override(context.Background(), f.manager, insp.ID, model.OverrideRequest{Verdict: "OK"})
	assert.ErrorIs(t, err, model.ErrInvalidOverride)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.Override(context.Background(), f.manager, insp.ID, model.OverrideRequest{Verdict: "PROCESSING", Reason: "redo"})
	assert.ErrorIs(t, err, model.ErrInvalidOverride)

	_, err = svc.Override(context.Background(), f.manager, uuid.New(), model.OverrideRequest{Verdict: "OK", Reason: "looks fine"})
	assert.ErrorIs(t, err, model.ErrInspectionNotFound)
}

func TestSubmit_DiscardsImageWhenRequestMovedOn(t *testing.T) {
	f := newFixture(t, true)
	err := f.store.RunInTx(context.Background(), func(tx store.Tx) error {
		req, err := tx.Requests().GetForUpdate(context.Background(), f.request.ID)
		if err != nil {
			return err
		}
		req.Status = requestModel.StatusCancelled
		return tx.Requests().Update(context.Background(), req)
	})
	require.NoError(t, err)

	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictOK}})
	_, err = svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	assert.ErrorIs(t, err, requestModel.ErrNotSourcing)
	assert.Zero(t, f.images.Len())
}

func TestImage(t *testing.T) {
	f := newFixture(t, true)
	svc := f.service(classifier.Static{Result: model.Result{Verdict: model.VerdictOK}})
	photo := pngImage(t)
	insp, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: photo})
	require.NoError(t, err)

	owner := actor.Actor{UserID: f.request.DealerID, Role: actor.RoleDealer}
	data, contentType, err := svc.Image(context.Background(), owner, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, photo, data)
	assert.Equal(t, "image/png", contentType)

	_, _, err = svc.Image(context.Background(), f.manager, insp.ID)
	assert.NoError(t, err)

	stranger := actor.Actor{UserID: uuid.New(), Role: actor.RoleDealer}
	_, _, err = svc.Image(context.Background(), stranger, insp.ID)
	assert.ErrorIs(t, err, requestModel.ErrNotOwner)

	_, _, err = svc.Image(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, model.ErrInspectionNotFound)

	require.NoError(t, f.images.Delete(context.Background(), insp.ImageKey))
	_, _, err = svc.Image(context.Background(), owner, insp.ID)
	assert.ErrorIs(t, err, model.ErrImageStorage)
}

// failingStore fails the nth transaction after its writes run, so they roll back.
type failingStore struct {
	*memory.Store
	failOn int
	calls  int
}

func (s *failingStore) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.calls++
	call := s.calls
	return s.Store.RunInTx(ctx, func(tx store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if call == s.failOn {
			return errors.New("connection reset")
		}
		return nil
	})
}

func TestSubmit_VerdictSaveFailureRecordsError(t *testing.T) {
	f := newFixture(t, true)
	flaky := &failingStore{Store: f.store, failOn: 2}
	coord := completion.NewService(f.store, nil, 0, nil, nil)
	svc := NewInspectionService(flaky, f.images, storage.NewImageProcessor(0),
		classifier.Static{Result: model.Result{Verdict: model.VerdictOK, Confidence: 90}}, coord)

	_, err := svc.Submit(context.Background(), f.operator, SubmitInput{ReservationID: f.res.ID, Image: pngImage(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	list, err := svc.ListByRequest(context.Background(), f.request.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.VerdictError, list[0].Verdict)
	assert.Contains(t, list[0].RawResponse, "connection reset")
	assert.NotNil(t, list[0].ProcessedAt)

	res := f.reservation(t)
	assert.Equal(t, reservationModel.StatusPicked, res.Status)
	assert.False(t, reservationModel.IsReady(*res))

	// The errored record can now be overridden by hand.
	insp, err := svc.Override(context.Background(), f.manager, list[0].ID, model.OverrideRequest{Verdict: "OK", Reason: "checked on site"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictOK, insp.Effective())
}
