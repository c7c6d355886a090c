package model

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultLeadTimeDays = 7

var DefaultReliabilityScore = decimal.RequireFromString("0.80")

// Supplier is an external import source (table suppliers).
type Supplier struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Code             string          `json:"code"`
	City             string          `json:"city"`
	Country          string          `json:"country"`
	LeadTimeDays     int             `json:"lead_time_days"`
	ReliabilityScore decimal.Decimal `json:"reliability_score"`
	// IssueCount counts reservations of this supplier that were ever blocked.
	IssueCount int       `json:"issue_count"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CatalogItem is what a supplier offers for one product (table supplier_products).
type CatalogItem struct {
	ID                 uuid.UUID       `json:"id"`
	SupplierID         uuid.UUID       `json:"supplier_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	AvailableQuantity  int             `json:"available_quantity"`
	MinOrderQuantity   int             `json:"min_order_quantity"`
	CustomLeadTimeDays *int            `json:"custom_lead_time_days,omitempty"`
	IsActive           bool            `json:"is_active"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Offer joins a catalog row with its supplier.
type Offer struct {
	Supplier Supplier    `json:"supplier"`
	Item     CatalogItem `json:"item"`
}

// LeadTimeDays prefers the per-product override.
func (o Offer) LeadTimeDays() int {
	if o.Item.CustomLeadTimeDays != nil && *o.Item.CustomLeadTimeDays > 0 {
		return *o.Item.CustomLeadTimeDays
	}
	if o.Supplier.LeadTimeDays > 0 {
		return o.Supplier.LeadTimeDays
	}
	return DefaultLeadTimeDays
}

// ConfirmPolicy decides whether a new supplier reservation starts confirmed.
type ConfirmPolicy string

const (
	PolicyAlways ConfirmPolicy = "always"
	PolicyTrust  ConfirmPolicy = "trust"
	PolicyNever  ConfirmPolicy = "never"
)

func ParseConfirmPolicy(s string) (ConfirmPolicy, error) {
	switch p := ConfirmPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAlways, PolicyTrust, PolicyNever:
		return p, nil
	}
	return "", fmt.Errorf("unknown supplier confirm policy %q", s)
}

// CreationPath tells how a supplier reservation came to exist.
type CreationPath int

const (
	CreatedByPlanner CreationPath = iota
	CreatedManually
)

// TrustRule is the earned-trust heuristic.
type TrustRule struct {
	MinScore  decimal.Decimal
	MaxIssues int
}

func (r TrustRule) Trusted(s Supplier) bool {
	return s.ReliabilityScore.GreaterThan(r.MinScore) && s.IssueCount <= r.MaxIssues
}

// AutoConfirm holds one policy per creation path.
type AutoConfirm struct {
	Planner ConfirmPolicy
	Manual  ConfirmPolicy
	Rule    TrustRule
}

// DefaultAutoConfirm auto-confirms planner reservations and applies the trust
// rule to manual ones.
func DefaultAutoConfirm() AutoConfirm {
	return AutoConfirm{
		Planner: PolicyAlways,
		Manual:  PolicyTrust,
		Rule:    TrustRule{MinScore: decimal.RequireFromString("0.95"), MaxIssues: 0},
	}
}

func (a AutoConfirm) Decide(path CreationPath, s Supplier) bool {
	policy := a.Planner
	if path == CreatedManually {
		policy = a.Manual
	}
	switch policy {
	case PolicyAlways:
		return true
	case PolicyTrust:
		return a.Rule.Trusted(s)
	case PolicyNever:
		return false
	}
	return false
}

type CreateSupplierRequest struct {
	Name             string  `json:"name"`
	Code             string  `json:"code"`
	City             string  `json:"city"`
	Country          string  `json:"country"`
	LeadTimeDays     int     `json:"lead_time_days"`
	ReliabilityScore *string `json:"reliability_score,omitempty"`
}

func (r CreateSupplierRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 30)),
		validation.Field(&r.LeadTimeDays, validation.Min(0), validation.Max(365)),
		validation.Field(&r.ReliabilityScore, validation.By(isScore)),
	)
}

type UpsertCatalogRequest struct {
	ProductID          string `json:"product_id"`
	UnitPrice          string `json:"unit_price"`
	AvailableQuantity  int    `json:"available_quantity"`
	MinOrderQuantity   int    `json:"min_order_quantity"`
	CustomLeadTimeDays *int   `json:"custom_lead_time_days,omitempty"`
}

func (r UpsertCatalogRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.By(isUUID)),
		validation.Field(&r.UnitPrice, validation.Required, validation.By(isDecimal)),
		validation.Field(&r.AvailableQuantity, validation.Min(0)),
		validation.Field(&r.MinOrderQuantity, validation.Min(0)),
	)
}

func isUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}

func isDecimal(value interface{}) error {
	s, _ := value.(string)
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return validation.NewError("validation_is_decimal", "must be a non-negative decimal")
	}
	return nil
}

func isScore(value interface{}) error {
	p, _ := value.(*string)
	if p == nil {
		return nil
	}
	d, err := decimal.NewFromString(*p)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return validation.NewError("validation_is_score", "must be between 0 and 1")
	}
	return nil
}
