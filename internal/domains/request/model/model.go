package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"fulfillment-backend/internal/shared/actor"
)

// Request is one dealer's ask for a quantity of a product (table product_requests).
type Request struct {
	ID            uuid.UUID `json:"id"`
	RequestNumber string    `json:"request_number"`
	DealerID      uuid.UUID `json:"dealer_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`

	DeliveryLocation string `json:"delivery_location"`
	DeliveryCity     string `json:"delivery_city"`

	Status Status `json:"status"`

	RecommendedSource         *SourceType `json:"recommended_source,omitempty"`
	RecommendationExplanation string      `json:"recommendation_explanation,omitempty"`

	RequestedDeliveryDate *time.Time `json:"requested_delivery_date,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`

	DealerNotes      string `json:"dealer_notes,omitempty"`
	ProcurementNotes string `json:"procurement_notes,omitempty"`

	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StatusHistory is one row of request_status_history.
type StatusHistory struct {
	ID        uuid.UUID  `json:"id"`
	RequestID uuid.UUID  `json:"request_id"`
	From      Status     `json:"from_status"`
	To        Status     `json:"to_status"`
	ChangedBy *uuid.UUID `json:"changed_by,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Transition moves the request to `to` and returns the history row to persist.
func (r *Request) Transition(to Status, by *uuid.UUID, reason string, at time.Time) (*StatusHistory, error) {
	if !CanTransition(r.Status, to) {
		return nil, ErrInvalidTransition.WithDetail("%s -> %s", r.Status, to)
	}
	h := &StatusHistory{
		ID:        uuid.New(),
		RequestID: r.ID,
		From:      r.Status,
		To:        to,
		ChangedBy: by,
		Reason:    reason,
		CreatedAt: at,
	}
	r.Status = to
	r.UpdatedAt = at
	switch to {
	case StatusReserved:
		r.ConfirmedAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
	}
	return h, nil
}

// Authorize rejects a dealer acting on another dealer's request.
func (r *Request) Authorize(a actor.Actor) error {
	if a.Role == actor.RoleDealer && a.UserID != r.DealerID {
		return ErrNotOwner
	}
	return nil
}

const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRequestNumber returns REQ-YYYYMMDD-XXXXXX.
func NewRequestNumber(at time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(numberAlphabet))))
		if err != nil {
			n = big.NewInt(int64(at.UnixNano()+int64(i)) % int64(len(numberAlphabet)))
		}
		suffix[i] = numberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("REQ-%s-%s", at.UTC().Format("20060102"), suffix)
}

type ListFilter struct {
	DealerID *uuid.UUID
	Statuses []Status
	Offset   int
	Limit    int
}
