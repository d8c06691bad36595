package ml

import (
	"fmt"

	"mona-backend/internal/models"
)

const (
	BaseFOS = 1.5
	MinFOS  = 0.3
	MaxFOS  = 3.0

	baseConfidence     = 0.85
	confidencePerScore = 0.05
	fallbackConfidence = 0.3
)

// adjustmentBand is the FOS adjustment range selected by a stability score,
// with the class the score alone would suggest.
type adjustmentBand struct {
	Min, Max    float64
	Provisional models.SafetyClass
}

// Indexed by stability score
var adjustmentBands = [...]adjustmentBand{
	{Min: -1.0, Max: -0.5, Provisional: models.Unstable},
	{Min: -0.5, Max: -0.2, Provisional: models.Critical},
	{Min: -0.2, Max: 0.3, Provisional: models.Marginal},
	{Min: 0.3, Max: 1.0, Provisional: models.Stable},
}

func bandFor(score int) (adjustmentBand, error) {
	if score < 0 || score >= len(adjustmentBands) {
		return adjustmentBand{}, fmt.Errorf("%w: stability score %d out of range", ErrPredictionFault, score)
	}
	return adjustmentBands[score], nil
}

// ClassifyFOS is the authoritative classification of a final FOS value
func ClassifyFOS(fos float64) models.SafetyClass {
	switch {
	case fos >= 2.0:
		return models.VeryStable
	case fos >= 1.5:
		return models.Stable
	case fos >= 1.2:
		return models.Marginal
	case fos >= 1.0:
		return models.Critical
	default:
		return models.Unstable
	}
}

// ConfidenceForScore is the trained-path confidence for a stability score
func ConfidenceForScore(score int) float64 {
	return clamp(baseConfidence+confidencePerScore*float64(score), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
