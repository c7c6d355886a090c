package classifier

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fulfillment-backend/internal/domains/inspection/model"
)

// MockClassifier mostly passes and sometimes flags damage or low confidence.
type MockClassifier struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMockClassifier(seed int64) *MockClassifier {
	return &MockClassifier{rnd: rand.New(rand.NewSource(seed))}
}

var mockVerdicts = []model.Verdict{
	model.VerdictOK, model.VerdictOK, model.VerdictOK, model.VerdictDamaged, model.VerdictLowConfidence,
}

func (m *MockClassifier) Classify(ctx context.Context, image []byte, contentType string, kind model.ImageKind) (model.Result, error) {
	if err := ctx.Err(); err != nil {
		return model.Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	verdict := mockVerdicts[m.rnd.Intn(len(mockVerdicts))]
	confidence := 55 + m.rnd.Intn(31)
	if verdict == model.VerdictOK {
		confidence = 75 + m.rnd.Intn(24)
	}
	expiry := time.Now().AddDate(0, 0, 30+m.rnd.Intn(336)).Truncate(24 * time.Hour)
	sealed := true

	res := model.Result{
		Verdict:     verdict,
		Confidence:  confidence,
		ExpiryDate:  &expiry,
		SealIntact:  &sealed,
		RawResponse: "MOCK_RESPONSE: no classifier API key configured",
	}
	if verdict == model.VerdictDamaged {
		res.DamageDetected = true
		res.DamageType = "minor_dent"
		res.DamageSeverity = "minor"
	}
	return res, nil
}

// Static always returns the same result or error. Useful in tests.
type Static struct {
	Result model.Result
	Err    error
}

func (s Static) Classify(ctx context.Context, image []byte, contentType string, kind model.ImageKind) (model.Result, error) {
	return s.Result, s.Err
}
