package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorReadingDefaults(t *testing.T) {
	r := SensorReading{ChannelDisplacement: 0.25}

	assert.Equal(t, 0.25, r.Value(ChannelDisplacement))
	assert.Equal(t, 2.0, r.Value(ChannelRainfall))
	assert.Equal(t, 250.0, r.Value(ChannelPorePressure))
	assert.Equal(t, 0.5, r.Value(ChannelTilt))
}

func TestSafetyClassOrdering(t *testing.T) {
	assert.Less(t, Unstable, Critical)
	assert.Less(t, Critical, Marginal)
	assert.Less(t, Marginal, Stable)
	assert.Less(t, Stable, VeryStable)
}

func TestSafetyClassAlert(t *testing.T) {
	assert.Equal(t, AlertGreen, VeryStable.Alert())
	assert.Equal(t, AlertGreen, Stable.Alert())
	assert.Equal(t, AlertYellow, Marginal.Alert())
	assert.Equal(t, AlertOrange, Critical.Alert())
	assert.Equal(t, AlertRed, Unstable.Alert())
}

func TestPredictionResultJSONKeys(t *testing.T) {
	score := 2
	result := PredictionResult{
		FOS:                  1.4,
		SafetyClassification: Marginal,
		AlertLevel:           AlertYellow,
		Confidence:           0.95,
		ModelUsed:            "rule-model-trained",
		StabilityIndicators:  &score,
		ThresholdsMet:        map[string]bool{IndicatorDisplacement: true},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "MARGINAL", raw["safety_classification"])
	assert.Equal(t, "YELLOW", raw["alert_level"])
	assert.Equal(t, float64(2), raw["stability_indicators"])
	assert.Contains(t, raw, "thresholds_met")
	assert.Contains(t, raw, "model_used")

	var decoded PredictionResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Marginal, decoded.SafetyClassification)
}

func TestFallbackResultOmitsIndicators(t *testing.T) {
	data, err := json.Marshal(PredictionResult{SafetyClassification: Marginal, AlertLevel: AlertYellow})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "stability_indicators")
	assert.NotContains(t, string(data), "thresholds_met")
}

func TestSafetyClassUnmarshalUnknown(t *testing.T) {
	var c SafetyClass
	assert.Error(t, c.UnmarshalText([]byte("SHAKY")))
}
