package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	base := WrongState("ALREADY_PICKED", "reservation already picked")
	detailed := base.WithDetail("reservation %s", "abc")

	assert.True(t, errors.Is(detailed, base))
	assert.True(t, errors.Is(fmt.Errorf("pick: %w", detailed), base))
	assert.False(t, errors.Is(detailed, ErrConcurrent))
	assert.Contains(t, detailed.Error(), "reservation abc")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("X", "bad"), KindValidation},
		{"wrapped conflict", fmt.Errorf("commit: %w", ErrConcurrent), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
		{"internal", Internal("db", errors.New("down")), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConcurrent.Wrap(errors.New("40001"))))
	assert.False(t, IsRetryable(ErrForbiddenRole))
	assert.Equal(t, "CONCURRENT_CONFLICT", CodeOf(ErrConcurrent))
}
