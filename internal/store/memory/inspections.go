package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/inspection/model"
	"fulfillment-backend/internal/shared/apperror"
)

type inspections struct{ t *tx }

func (r *inspections) Create(ctx context.Context, i *model.Inspection) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.reservations[i.ReservationID]; !ok {
		return apperror.ErrReference.WithDetail("reservation %s", i.ReservationID)
	}
	st.inspections[i.ID] = *i
	return nil
}

func (r *inspections) GetByID(ctx context.Context, id uuid.UUID) (*model.Inspection, error) {
	defer r.t.lock()()
	i, ok := r.t.state().inspections[id]
	if !ok {
		return nil, model.ErrInspectionNotFound
	}
	return &i, nil
}

func (r *inspections) Update(ctx context.Context, i *model.Inspection) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.inspections[i.ID]; !ok {
		return model.ErrInspectionNotFound
	}
	st.inspections[i.ID] = *i
	return nil
}

func (r *inspections) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Inspection, error) {
	defer r.t.lock()()
	var out []model.Inspection
	for _, i := range r.t.state().inspections {
		if i.RequestID == requestID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}
