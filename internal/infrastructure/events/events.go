// Package events publishes domain events for downstream consumers such as
// shipment allocation.
package events

import (
	"context"
	"time"
)

const (
	TypeRequestReady     = "request.ready_for_allocation"
	TypeReservationStale = "reservation.stale"
)

// Event is the envelope written to the topic. Key keeps one request's events
// on one partition.
type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// RequestReadyPayload is sent once per request when it reaches READY_FOR_ALLOCATION.
type RequestReadyPayload struct {
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	Sources       int    `json:"sources"`
}

// ReservationStalePayload flags a warehouse reservation nobody has picked.
type ReservationStalePayload struct {
	ReservationID string    `json:"reservation_id"`
	RequestID     string    `json:"request_id"`
	WarehouseID   string    `json:"warehouse_id"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, evt Event) error { return nil }
func (NoopPublisher) Close() error { return nil }
