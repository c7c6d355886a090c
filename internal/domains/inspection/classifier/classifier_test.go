package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfillment-backend/internal/domains/inspection/model"
)

func TestMapReport(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		verdict    model.Verdict
		confidence int
	}{
		{"clean pass", `{"overall_result":"OK","confidence_score":91,"quality_grade":"A"}`, model.VerdictOK, 91},
		{"spoilage wins over expiry", `{"spoilage_detected":true,"is_expired":true,"confidence_score":90}`, model.VerdictDamaged, 90},
		{"expired", `{"is_expired":true,"damage_detected":true,"damage_severity":"severe"}`, model.VerdictExpired, 80},
		{"moderate damage", `{"damage_detected":true,"damage_severity":"moderate","confidence_score":85}`, model.VerdictDamaged, 85},
		{"minor damage passes", `{"damage_detected":true,"damage_severity":"minor","confidence_score":85}`, model.VerdictOK, 85},
		{"tampered seal", `{"tamper_evidence":true,"confidence_score":85}`, model.VerdictDamaged, 85},
		{"grade F", `{"quality_grade":"F","confidence_score":85}`, model.VerdictDamaged, 85},
		{"model says spoiled", `{"overall_result":"SPOILED","confidence_score":85}`, model.VerdictDamaged, 85},
		{"needs review", `{"overall_result":"NEEDS_REVIEW","confidence_score":95}`, model.VerdictLowConfidence, 95},
		{"grade C", `{"quality_grade":"C","confidence_score":95}`, model.VerdictLowConfidence, 95},
		{"low confidence", `{"overall_result":"OK","confidence_score":69}`, model.VerdictLowConfidence, 69},
		{"wrapped in prose", "Here you go:\n```json\n{\"overall_result\":\"OK\",\"confidence_score\":77}\n```", model.VerdictOK, 77},
		{"no json", "I cannot see the package", model.VerdictLowConfidence, 50},
		{"broken json", `{"overall_result": OK}`, model.VerdictLowConfidence, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapReport(tt.raw)
			assert.Equal(t, tt.verdict, got.Verdict)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}

func TestMapReport_Fields(t *testing.T) {
	got := MapReport(`{"damage_detected":true,"damage_type":"dent","damage_severity":"Minor",
		"seal_intact":false,"expiry_date_iso":"2027-03-01","confidence_score":88}`)

	assert.True(t, got.DamageDetected)
	assert.Equal(t, "dent", got.DamageType)
	assert.Equal(t, "minor", got.DamageSeverity)
	require.NotNil(t, got.SealIntact)
	assert.False(t, *got.SealIntact)
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, time.March, got.ExpiryDate.Month())

	none := MapReport(`{"damage_type":"none","damage_severity":"none"}`)
	assert.Empty(t, none.DamageType)
	assert.Empty(t, none.DamageSeverity)
}

func TestPrompt(t *testing.T) {
	assert.Contains(t, Prompt(model.ImageLabel), "LABEL")
	assert.Contains(t, Prompt(model.ImageKind("unknown")), "PACKAGE")
	assert.Contains(t, Prompt(model.ImageDamage), "confidence_score")
}

func TestHTTPClassifier(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"overall_result\":\"DAMAGED\",\"confidence_score\":83}"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(HTTPConfig{URL: srv.URL, APIKey: "k", Model: "vision", RPS: 100})
	res, err := c.Classify(context.Background(), []byte{1, 2, 3}, "image/jpeg", model.ImagePackage)
	require.NoError(t, err)

	assert.Equal(t, model.VerdictDamaged, res.Verdict)
	assert.Equal(t, 83, res.Confidence)
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "vision", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	require.Len(t, gotBody.Messages[0].Content, 2)
	assert.True(t, strings.HasPrefix(gotBody.Messages[0].Content[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestHTTPClassifier_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(HTTPConfig{URL: srv.URL, RPS: 100})
	_, err := c.Classify(context.Background(), []byte{1}, "image/png", model.ImagePackage)
	assert.ErrorContains(t, err, "503")
}

func TestMockClassifier_Deterministic(t *testing.T) {
	a := NewMockClassifier(7)
	b := NewMockClassifier(7)
	for i := 0; i < 5; i++ {
		ra, err := a.Classify(context.Background(), nil, "image/png", model.ImagePackage)
		require.NoError(t, err)
		rb, _ := b.Classify(context.Background(), nil, "image/png", model.ImagePackage)
		assert.Equal(t, ra.Verdict, rb.Verdict)
		assert.Equal(t, ra.Confidence, rb.Confidence)
	}
}
