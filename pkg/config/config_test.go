package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "./trained_models", cfg.ModelDir)
	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, "sensor/+/+", cfg.MQTTTopicTelemetry)
	assert.Equal(t, "fos/{device_id}/prediction", cfg.MQTTTopicPrediction)
	assert.Equal(t, int64(0), cfg.RandomSeed)
	assert.Equal(t, 5*time.Second, cfg.PredictionMinInterval)
	assert.True(t, cfg.MQTTEnabled)
	assert.True(t, cfg.ClickHouseEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MODEL_DIR", "/srv/models")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("DEBUG", "true")
	t.Setenv("PORE_PRESSURE_DELTA", "12.5")
	t.Setenv("PREDICTION_MIN_INTERVAL", "250ms")
	t.Setenv("CLICKHOUSE_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "/srv/models", cfg.ModelDir)
	assert.Equal(t, int64(42), cfg.RandomSeed)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 12.5, cfg.PorePressureDelta)
	assert.Equal(t, 250*time.Millisecond, cfg.PredictionMinInterval)
	assert.False(t, cfg.ClickHouseEnabled)
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("RAINFALL_DELTA", "lots")
	t.Setenv("RANDOM_SEED", "seed")
	t.Setenv("MQTT_ENABLED", "maybe")
	t.Setenv("PREDICTION_MIN_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 0.5, cfg.RainfallDelta)
	assert.Equal(t, int64(0), cfg.RandomSeed)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, 5*time.Second, cfg.PredictionMinInterval)
}
