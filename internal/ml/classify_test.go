package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mona-backend/internal/models"
)

func TestClassifyFOS(t *testing.T) {
	tests := []struct {
		fos   float64
		class models.SafetyClass
	}{
		{3.0, models.VeryStable},
		{2.0, models.VeryStable},
		{1.9999, models.Stable},
		{1.5, models.Stable},
		{1.4999, models.Marginal},
		{1.2, models.Marginal},
		{1.1999, models.Critical},
		{1.0, models.Critical},
		{0.9999, models.Unstable},
		{0.3, models.Unstable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.class, ClassifyFOS(tt.fos), "fos=%v", tt.fos)
	}
}

func TestConfidenceMonotoneInScore(t *testing.T) {
	prev := -1.0
	for score := 0; score <= 3; score++ {
		c := ConfidenceForScore(score)
		assert.GreaterOrEqual(t, c, prev)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
	assert.InDelta(t, 0.85, ConfidenceForScore(0), 1e-9)
	assert.InDelta(t, 1.0, ConfidenceForScore(3), 1e-9)
}

func TestBandFor(t *testing.T) {
	band, err := bandFor(3)
	assert.NoError(t, err)
	assert.Equal(t, 0.3, band.Min)
	assert.Equal(t, 1.0, band.Max)
	assert.Equal(t, models.Stable, band.Provisional)

	_, err = bandFor(4)
	assert.ErrorIs(t, err, ErrPredictionFault)
	_, err = bandFor(-1)
	assert.ErrorIs(t, err, ErrPredictionFault)
}
