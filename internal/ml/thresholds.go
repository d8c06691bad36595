package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"mona-backend/internal/models"
)

// ModelConfigFile holds the critical thresholds and is mandatory
const ModelConfigFile = "model_config.json"

// ThresholdSet holds the critical value of each threshold-bearing channel.
// A reading at or below its threshold counts as stable.
type ThresholdSet struct {
	DisplacementMM  float64 `json:"displacement_mm"`
	RainfallMM      float64 `json:"rainfall_mm"`
	PorePressureKPa float64 `json:"pore_pressure_kpa"`
}

// DefaultThresholds are used when model_config.json cannot be loaded
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		DisplacementMM:  1.445,
		RainfallMM:      5.245,
		PorePressureKPa: 309.75,
	}
}

// Limit returns the threshold for a channel; tilt and unknown channels have none
func (t ThresholdSet) Limit(channel string) (float64, bool) {
	switch channel {
	case models.ChannelDisplacement:
		return t.DisplacementMM, true
	case models.ChannelRainfall:
		return t.RainfallMM, true
	case models.ChannelPorePressure:
		return t.PorePressureKPa, true
	}
	return 0, false
}

type modelConfig struct {
	ModelVersion       string             `json:"model_version"`
	CriticalThresholds map[string]float64 `json:"critical_thresholds"`
}

// loadThresholds reads critical_thresholds from the model config file.
// Every threshold-bearing channel must be present.
func loadThresholds(path string) (ThresholdSet, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ThresholdSet{}, "", fmt.Errorf("%w: failed to read model config: %w", ErrConfigMissing, err)
	}

	var cfg modelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ThresholdSet{}, "", fmt.Errorf("%w: failed to unmarshal model config: %w", ErrConfigMissing, err)
	}

	values := make(map[string]float64, 3)
	for _, sc := range scoredChannels {
		channel := sc.channel
		v, ok := cfg.CriticalThresholds[channel]
		if !ok {
			return ThresholdSet{}, "", fmt.Errorf("%w: critical_thresholds has no %s", ErrConfigMissing, channel)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ThresholdSet{}, "", fmt.Errorf("%w: threshold for %s is not finite", ErrConfigMissing, channel)
		}
		values[channel] = v
	}

	return ThresholdSet{
		DisplacementMM:  values[models.ChannelDisplacement],
		RainfallMM:      values[models.ChannelRainfall],
		PorePressureKPa: values[models.ChannelPorePressure],
	}, cfg.ModelVersion, nil
}
