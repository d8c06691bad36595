package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"mona-backend/internal/models"
)

func TestComputeStability(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name    string
		reading models.SensorReading
		score   int
		met     map[string]bool
	}{
		{
			name: "all channels below threshold",
			reading: models.SensorReading{
				models.ChannelDisplacement: 0.5,
				models.ChannelRainfall:     1.0,
				models.ChannelPorePressure: 200.0,
			},
			score: 3,
			met:   map[string]bool{"displacement": true, "rainfall": true, "pore_pressure": true},
		},
		{
			name: "all channels above threshold",
			reading: models.SensorReading{
				models.ChannelDisplacement: 5.0,
				models.ChannelRainfall:     10.0,
				models.ChannelPorePressure: 400.0,
			},
			score: 0,
			met:   map[string]bool{"displacement": false, "rainfall": false, "pore_pressure": false},
		},
		{
			name: "equality counts as stable",
			reading: models.SensorReading{
				models.ChannelDisplacement: 1.445,
				models.ChannelRainfall:     5.245,
				models.ChannelPorePressure: 309.75,
			},
			score: 3,
			met:   map[string]bool{"displacement": true, "rainfall": true, "pore_pressure": true},
		},
		{
			name:    "missing channels use defaults",
			reading: models.SensorReading{},
			score:   3,
			met:     map[string]bool{"displacement": true, "rainfall": true, "pore_pressure": true},
		},
		{
			name: "tilt is not scored",
			reading: models.SensorReading{
				models.ChannelDisplacement: 5.0,
				models.ChannelRainfall:     1.0,
				models.ChannelPorePressure: 400.0,
				models.ChannelTilt:         45.0,
			},
			score: 1,
			met:   map[string]bool{"displacement": false, "rainfall": true, "pore_pressure": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStability(tt.reading, thresholds)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.met, got.Met)
		})
	}
}

func TestComputeStabilityDeterministic(t *testing.T) {
	reading := models.SensorReading{models.ChannelDisplacement: 1.2, models.ChannelPorePressure: 310}
	first := ComputeStability(reading, DefaultThresholds())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeStability(reading, DefaultThresholds()))
	}
}

func TestRuleModelEvaluateRejectsNonFinite(t *testing.T) {
	model := &RuleModel{}
	_, err := model.Evaluate(models.SensorReading{models.ChannelRainfall: math.NaN()}, DefaultThresholds())
	assert.ErrorIs(t, err, ErrPredictionFault)

	_, err = model.Evaluate(models.SensorReading{models.ChannelDisplacement: math.Inf(1)}, DefaultThresholds())
	assert.ErrorIs(t, err, ErrPredictionFault)
}

func TestThresholdSetLimit(t *testing.T) {
	thresholds := ThresholdSet{DisplacementMM: 2, RainfallMM: 8, PorePressureKPa: 320}

	for channel, want := range map[string]float64{
		models.ChannelDisplacement: 2,
		models.ChannelRainfall:     8,
		models.ChannelPorePressure: 320,
	} {
		got, ok := thresholds.Limit(channel)
		assert.True(t, ok, channel)
		assert.Equal(t, want, got, channel)
	}

	_, ok := thresholds.Limit(models.ChannelTilt)
	assert.False(t, ok)
	_, ok = thresholds.Limit("wind_kph")
	assert.False(t, ok)
}

func TestComputeStabilityFollowsCustomThresholds(t *testing.T) {
	reading := models.SensorReading{
		models.ChannelDisplacement: 2,
		models.ChannelRainfall:     8.5,
		models.ChannelPorePressure: 320,
	}
	got := ComputeStability(reading, ThresholdSet{DisplacementMM: 2, RainfallMM: 8, PorePressureKPa: 320})

	assert.Equal(t, 2, got.Score)
	assert.Equal(t, map[string]bool{
		models.IndicatorDisplacement: true,
		models.IndicatorRainfall:     false,
		models.IndicatorPorePressure: true,
	}, got.Met)
}
