package ml

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

// SequenceModel is the exported sequence model: one weight row per step of a
// fixed window of feature vectors, oldest first.
type SequenceModel struct {
	Window       int         `json:"window"`
	FeatureNames []string    `json:"feature_names"`
	Weights      [][]float64 `json:"weights"`
	Bias         float64     `json:"bias"`
}

// LoadSequenceModel reads a sequence model artifact from disk
func LoadSequenceModel(path string) (*SequenceModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence model: %w", err)
	}

	var model SequenceModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sequence model: %w", err)
	}
	if model.Window <= 0 || len(model.Weights) != model.Window {
		return nil, fmt.Errorf("sequence model window %d does not match %d weight rows", model.Window, len(model.Weights))
	}
	for i, row := range model.Weights {
		if len(row) != len(model.FeatureNames) {
			return nil, fmt.Errorf("sequence model step %d has %d weights for %d features", i, len(row), len(model.FeatureNames))
		}
	}

	return &model, nil
}

// Predict scores the most recent Window rows of history. Reserved; not
// consulted by Predictor.
func (m *SequenceModel) Predict(history [][]float64) (float64, error) {
	if len(history) < m.Window {
		return 0, fmt.Errorf("sequence model needs %d steps, got %d", m.Window, len(history))
	}

	recent := history[len(history)-m.Window:]
	score := m.Bias
	for i, row := range recent {
		if len(row) != len(m.Weights[i]) {
			return 0, fmt.Errorf("step %d has %d features, want %d", i, len(row), len(m.Weights[i]))
		}
		score += floats.Dot(m.Weights[i], row)
	}
	return score, nil
}
