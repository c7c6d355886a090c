// Package classifier turns an inspection photo into a verdict. The model
// behind it is a black box reached over HTTP; without credentials a mock is used.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fulfillment-backend/internal/domains/inspection/model"
)

type Classifier interface {
	Classify(ctx context.Context, image []byte, contentType string, kind model.ImageKind) (model.Result, error)
}

// report is the JSON the vision model is asked to return.
type report struct {
	DamageDetected   bool    `json:"damage_detected"`
	DamageType       string  `json:"damage_type"`
	DamageSeverity   string  `json:"damage_severity"`
	SealIntact       *bool   `json:"seal_intact"`
	TamperEvidence   bool    `json:"tamper_evidence"`
	SpoilageDetected bool    `json:"spoilage_detected"`
	ExpiryDateISO    *string `json:"expiry_date_iso"`
	IsExpired        *bool   `json:"is_expired"`
	OverallResult    string  `json:"overall_result"`
	ConfidenceScore  *int    `json:"confidence_score"`
	QualityGrade     string  `json:"quality_grade"`
	Explanation      string  `json:"explanation"`
}

const lowConfidenceThreshold = 70

// MapReport applies the verdict rules in priority order. Text without a JSON
// object in it yields LOW_CONFIDENCE at 50.
func MapReport(raw string) model.Result {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	var rep report
	if start < 0 || end <= start {
		return unparseable(raw, "no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rep); err != nil {
		return unparseable(raw, err.Error())
	}

	confidence := 80
	if rep.ConfidenceScore != nil {
		confidence = *rep.ConfidenceScore
	}
	grade := strings.ToUpper(strings.TrimSpace(rep.QualityGrade))
	if grade == "" {
		grade = "B"
	}
	severity := strings.ToLower(strings.TrimSpace(rep.DamageSeverity))
	overall := strings.ToUpper(strings.TrimSpace(rep.OverallResult))
	expired := rep.IsExpired != nil && *rep.IsExpired

	verdict := model.VerdictOK
	switch {
	case rep.SpoilageDetected:
		verdict = model.VerdictDamaged
	case expired:
		verdict = model.VerdictExpired
	case rep.DamageDetected && (severity == "moderate" || severity == "severe"):
		verdict = model.VerdictDamaged
	case rep.TamperEvidence:
		verdict = model.VerdictDamaged
	case grade == "F":
		verdict = model.VerdictDamaged
	case overall == "DAMAGED" || overall == "SPOILED":
		verdict = model.VerdictDamaged
	case overall == "NEEDS_REVIEW" || grade == "C":
		verdict = model.VerdictLowConfidence
	case confidence < lowConfidenceThreshold:
		verdict = model.VerdictLowConfidence
	}

	res := model.Result{
		Verdict:        verdict,
		Confidence:     confidence,
		DamageDetected: rep.DamageDetected,
		DamageType:     noneToEmpty(rep.DamageType),
		DamageSeverity: noneToEmpty(severity),
		IsExpired:      expired,
		SealIntact:     rep.SealIntact,
		Spoilage:       rep.SpoilageDetected,
		RawResponse:    raw,
	}
	if rep.ExpiryDateISO != nil {
		if d, err := time.Parse("2006-01-02", *rep.ExpiryDateISO); err == nil {
			res.ExpiryDate = &d
		}
	}
	return res
}

func unparseable(raw, reason string) model.Result {
	return model.Result{
		Verdict:     model.VerdictLowConfidence,
		Confidence:  50,
		RawResponse: fmt.Sprintf("Parse error: %s. Response: %s", reason, raw),
	}
}

func noneToEmpty(s string) string {
	if strings.EqualFold(s, "none") {
		return ""
	}
	return s
}
