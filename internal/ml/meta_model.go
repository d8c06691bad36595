package ml

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"mona-backend/internal/models"
)

// MetaModel is the exported meta-learner: a linear blend over scaled features
type MetaModel struct {
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LoadMetaModel reads a meta-model artifact from disk
func LoadMetaModel(path string) (*MetaModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meta model: %w", err)
	}

	var model MetaModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meta model: %w", err)
	}
	if len(model.FeatureNames) == 0 || len(model.FeatureNames) != len(model.Coefficients) {
		return nil, fmt.Errorf("meta model has %d features and %d coefficients",
			len(model.FeatureNames), len(model.Coefficients))
	}

	return &model, nil
}

// Predict returns intercept + coefficients·features. Reserved; not consulted
// by Predictor, which only validates the artifact at load time.
func (m *MetaModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("meta model expects %d features, got %d", len(m.Coefficients), len(features))
	}
	return m.Intercept + floats.Dot(m.Coefficients, features), nil
}

// Features extracts the named channels from a reading, applying defaults
func Features(reading models.SensorReading, names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = reading.Value(name)
	}
	return out
}
