package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"

	"fulfillment-backend/internal/domains/request/model"
	"fulfillment-backend/internal/shared/apperror"
)

type requests struct{ t *tx }

func (r *requests) Create(ctx context.Context, req *model.Request) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.requests[req.ID]; ok {
		return apperror.ErrDuplicate
	}
	for _, existing := range st.requests {
		if existing.RequestNumber == req.RequestNumber {
			return apperror.ErrDuplicate.WithDetail("request number %s", req.RequestNumber)
		}
	}
	req.Version = 1
	st.requests[req.ID] = *req
	return nil
}

func (r *requests) GetByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	defer r.t.lock()()
	req, ok := r.t.state().requests[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	return &req, nil
}

func (r *requests) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *requests) Update(ctx context.Context, req *model.Request) error {
	defer r.t.lock()()
	st := r.t.state()
	cur, ok := st.requests[req.ID]
	if !ok || cur.Version != req.Version {
		return apperror.ErrConcurrent
	}
	req.Version++
	st.requests[req.ID] = *req
	return nil
}

func (r *requests) List(ctx context.Context, filter model.ListFilter) ([]model.Request, int, error) {
	defer r.t.lock()()
	var all []model.Request
	for _, req := range r.t.state().requests {
		if filter.DealerID != nil && req.DealerID != *filter.DealerID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, req.Status) {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})

	total := len(all)
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	start := min(filter.Offset, total)
	end := min(start+limit, total)
	return all[start:end], total, nil
}

func (r *requests) AddHistory(ctx context.Context, h *model.StatusHistory) error {
	defer r.t.lock()()
	st := r.t.state()
	if _, ok := st.requests[h.RequestID]; !ok {
		return apperror.ErrReference
	}
	st.history = append(st.history, *h)
	return nil
}

func (r *requests) ListHistory(ctx context.Context, requestID uuid.UUID) ([]model.StatusHistory, error) {
	defer r.t.lock()()
	var out []model.StatusHistory
	for _, h := range r.t.state().history {
		if h.RequestID == requestID {
			out = append(out, h)
		}
	}
	return out, nil
}
