package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

// WriteSampleArtifacts writes a demonstration model directory: the thresholds
// config plus one of each artifact. Use it when no trained export exists yet.
func WriteSampleArtifacts(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	features := []string{models.ChannelDisplacement, models.ChannelRainfall, models.ChannelPorePressure, models.ChannelTilt}
	defaults := DefaultThresholds()

	files := map[string]interface{}{
		ModelConfigFile: modelConfig{
			ModelVersion: "sample-1",
			CriticalThresholds: map[string]float64{
				models.ChannelDisplacement: defaults.DisplacementMM,
				models.ChannelRainfall:     defaults.RainfallMM,
				models.ChannelPorePressure: defaults.PorePressureKPa,
			},
		},
		ArtifactRuleModel.FileName(): RuleModel{
			Rules: []json.RawMessage{
				json.RawMessage(`{"if":"displacement_mm <= 1.445","then":"stable"}`),
				json.RawMessage(`{"if":"pore_pressure_kpa > 309.75","then":"unstable"}`),
			},
			RuleWeights: []float64{0.6, 0.4},
			Bias:        0.0,
		},
		ArtifactMetaModel.FileName(): MetaModel{
			FeatureNames: features,
			Coefficients: []float64{-0.25, -0.05, -0.002, -0.1},
			Intercept:    2.2,
		},
		ArtifactScaler.FileName(): FeatureScaler{
			FeatureNames: features,
			Mean:         []float64{1.0, 2.0, 250.0, 0.5},
			Scale:        []float64{0.5, 2.5, 40.0, 0.3},
		},
		ArtifactSequenceModel.FileName(): SequenceModel{
			Window:       2,
			FeatureNames: features,
			Weights: [][]float64{
				{-0.05, -0.01, -0.001, -0.02},
				{-0.1, -0.02, -0.002, -0.04},
			},
			Bias: 2.0,
		},
	}

	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	log.Infof("Created sample model artifacts in %s", dir)
	return nil
}
