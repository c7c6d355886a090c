package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/reservation/model"
	"fulfillment-backend/internal/domains/reservation/repository"
	"fulfillment-backend/internal/shared/apperror"
)

type reservations struct{ t *tx }

func (r *reservations) Create(ctx context.Context, res *model.Reservation) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.reservations[res.ID]; ok {
		return apperror.ErrDuplicate
	}
	if _, ok := st.requests[res.RequestID]; !ok {
		return apperror.ErrReference.WithDetail("request %s", res.RequestID)
	}
	res.Version = 1
	st.reservations[res.ID] = *res
	return nil
}

func (r *reservations) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	defer r.t.lock()()
	res, ok := r.t.state().reservations[id]
	if !ok {
		return nil, model.ErrReservationNotFound
	}
	return &res, nil
}

func (r *reservations) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservations) Update(ctx context.Context, res *model.Reservation) error {
	defer r.t.lock()()
	st := r.t.state()
	cur, ok := st.reservations[res.ID]
	if !ok || cur.Version != res.Version {
		return apperror.ErrConcurrent
	}
	res.Version++
	st.reservations[res.ID] = *res
	return nil
}

func (r *reservations) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Reservation, error) {
	defer r.t.lock()()
	var out []model.Reservation
	for _, res := range r.t.state().reservations {
		if res.RequestID == requestID {
			out = append(out, res)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *reservations) ListStale(ctx context.Context, f repository.StaleFilter) ([]model.Reservation, error) {
	defer r.t.lock()()
	st := r.t.state()
	var out []model.Reservation
	for _, res := range st.reservations {
		if res.Source() != model.SourceWarehouse || !res.IsLive() || res.IsPicked {
			continue
		}
		if !res.CreatedAt.Before(f.CreatedBefore) {
			continue
		}
		req, ok := st.requests[res.RequestID]
		if !ok || !req.Status.IsSourcing() {
			continue
		}
		out = append(out, res)
	}
	sortByCreated(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func sortByCreated(rows []model.Reservation) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
}
