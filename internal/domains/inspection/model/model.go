package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	resmodel "fulfillment-backend/internal/domains/reservation/model"
)

// Verdict is the classifier's (or a manager's) judgement on one image.
type Verdict string

const (
	VerdictProcessing    Verdict = "PROCESSING"
	VerdictOK            Verdict = "OK"
	VerdictDamaged       Verdict = "DAMAGED"
	VerdictExpired       Verdict = "EXPIRED"
	VerdictLowConfidence Verdict = "LOW_CONFIDENCE"
	VerdictError         Verdict = "ERROR"
)

func ParseVerdict(v string) (Verdict, error) {
	switch Verdict(v) {
	case VerdictProcessing, VerdictOK, VerdictDamaged, VerdictExpired, VerdictLowConfidence, VerdictError:
		return Verdict(v), nil
	}
	return "", fmt.Errorf("unknown verdict %q", v)
}

// Outcome converts a final verdict into the reservation outcome it drives.
// PROCESSING and ERROR drive nothing.
func (v Verdict) Outcome() (resmodel.Outcome, bool) {
	switch v {
	case VerdictOK:
		return resmodel.OutcomePass, true
	case VerdictDamaged:
		return resmodel.OutcomeDamaged, true
	case VerdictExpired:
		return resmodel.OutcomeExpired, true
	case VerdictLowConfidence:
		return resmodel.OutcomeLowConfidence, true
	case VerdictProcessing, VerdictError:
		return "", false
	}
	return "", false
}

// ImageKind selects the classifier prompt.
type ImageKind string

const (
	ImagePackage  ImageKind = "package"
	ImageLabel    ImageKind = "label"
	ImageContents ImageKind = "contents"
	ImageDamage   ImageKind = "damage"
)

func (k ImageKind) IsValid() bool {
	switch k {
	case ImagePackage, ImageLabel, ImageContents, ImageDamage:
		return true
	}
	return false
}

// Inspection is one uploaded photo and its classification (table inspections).
type Inspection struct {
	ID            uuid.UUID `json:"id"`
	RequestID     uuid.UUID `json:"request_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	UploadedBy    uuid.UUID `json:"uploaded_by"`

	ImageKey    string    `json:"image_key"`
	ImageKind   ImageKind `json:"image_kind"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`

	Verdict    Verdict `json:"verdict"`
	Confidence int     `json:"confidence"`

	DamageDetected bool       `json:"damage_detected"`
	DamageType     string     `json:"damage_type,omitempty"`
	DamageSeverity string     `json:"damage_severity,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	IsExpired      bool       `json:"is_expired"`
	SealIntact     *bool      `json:"seal_intact,omitempty"`
	Spoilage       bool       `json:"spoilage_detected"`
	RawResponse    string     `json:"raw_response,omitempty"`

	OverrideVerdict *Verdict   `json:"override_verdict,omitempty"`
	OverrideReason  string     `json:"override_reason,omitempty"`
	OverriddenBy    *uuid.UUID `json:"overridden_by,omitempty"`
	OverriddenAt    *time.Time `json:"overridden_at,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Effective returns the override when present, otherwise the classifier verdict.
func (i *Inspection) Effective() Verdict {
	if i.OverrideVerdict != nil {
		return *i.OverrideVerdict
	}
	return i.Verdict
}

// Result is what a classifier returns for one image.
type Result struct {
	Verdict        Verdict
	Confidence     int
	DamageDetected bool
	DamageType     string
	DamageSeverity string
	ExpiryDate     *time.Time
	IsExpired      bool
	SealIntact     *bool
	Spoilage       bool
	RawResponse    string
}

// Record copies a classifier result onto the inspection.
func (i *Inspection) Record(res Result, at time.Time) {
	i.Verdict = res.Verdict
	i.Confidence = res.Confidence
	i.DamageDetected = res.DamageDetected
	i.DamageType = res.DamageType
	i.DamageSeverity = res.DamageSeverity
	i.ExpiryDate = res.ExpiryDate
	i.IsExpired = res.IsExpired
	i.SealIntact = res.SealIntact
	i.Spoilage = res.Spoilage
	i.RawResponse = res.RawResponse
	i.ProcessedAt = &at
}
