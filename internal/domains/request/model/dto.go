package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type CreateRequest struct {
	ProductID             string     `json:"product_id"`
	Quantity              int        `json:"quantity"`
	DeliveryLocation      string     `json:"delivery_location"`
	DeliveryCity          string     `json:"delivery_city"`
	RequestedDeliveryDate *time.Time `json:"requested_delivery_date,omitempty"`
	Notes                 string     `json:"notes"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(isUUID)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.DeliveryLocation, validation.Required, validation.Length(2, 255)),
		validation.Field(&r.DeliveryCity, validation.Length(0, 100)),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

func (r NotesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

func (r CancelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(3, 500)),
	)
}

func isUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}

// ListQuery is bound from the query string of GET /requests.
type ListQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (q ListQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Status, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			if _, err := ParseStatus(s); err != nil {
				return validation.NewError("validation_status", "unknown status")
			}
			return nil
		})),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(100)),
	)
}

// Filter converts the query into a repository filter.
func (q ListQuery) Filter() ListFilter {
	f := ListFilter{Limit: q.Limit}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if q.Page > 1 {
		f.Offset = (q.Page - 1) * f.Limit
	}
	if q.Status != "" {
		f.Statuses = []Status{Status(q.Status)}
	}
	return f
}

// ListResponse is one page of requests.
type ListResponse struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
