package ml

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

// FeatureScaler standardizes features as (x - mean) / scale
type FeatureScaler struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// LoadFeatureScaler reads a scaler artifact from disk
func LoadFeatureScaler(path string) (*FeatureScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature scaler: %w", err)
	}

	var scaler FeatureScaler
	if err := json.Unmarshal(data, &scaler); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature scaler: %w", err)
	}

	n := len(scaler.FeatureNames)
	if n == 0 || len(scaler.Mean) != n || len(scaler.Scale) != n {
		return nil, fmt.Errorf("feature scaler shape mismatch: %d names, %d means, %d scales",
			n, len(scaler.Mean), len(scaler.Scale))
	}
	for i, s := range scaler.Scale {
		if s == 0 {
			return nil, fmt.Errorf("feature scaler has zero scale for %s", scaler.FeatureNames[i])
		}
	}

	return &scaler, nil
}

// Transform returns a scaled copy of features. Reserved; not consulted by
// Predictor.
func (s *FeatureScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("feature scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	out := make([]float64, len(features))
	copy(out, features)
	floats.Sub(out, s.Mean)
	floats.Div(out, s.Scale)
	return out, nil
}
