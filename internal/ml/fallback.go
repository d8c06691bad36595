package ml

import (
	"math/rand/v2"

	"mona-backend/internal/models"
)

const (
	ModelRuleTrained = "rule-model-trained"
	ModelFallback    = "fallback"
)

// FallbackPredictor is the always-available predictor used when the trained
// path is unavailable or faults. It never looks at the model bundle.
type FallbackPredictor struct {
	src rand.Source
}

// NewFallbackPredictor creates a fallback predictor drawing from src
func NewFallbackPredictor(src rand.Source) *FallbackPredictor {
	return &FallbackPredictor{src: newLockedSource(src)}
}

// Predict returns a MARGINAL/YELLOW result with FOS drawn from [1.0, 2.0)
func (f *FallbackPredictor) Predict(_ models.SensorReading) models.PredictionResult {
	return models.PredictionResult{
		FOS:                  drawUniform(f.src, 1.0, 2.0),
		SafetyClassification: models.Marginal,
		AlertLevel:           models.AlertYellow,
		Confidence:           fallbackConfidence,
		ModelUsed:            ModelFallback,
	}
}
