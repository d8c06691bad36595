package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mona-backend/internal/models"
)

func TestAllTablesAreIdempotent(t *testing.T) {
	tables := AllTables()
	require.Len(t, tables, 3)
	for _, sql := range tables {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS")
	}
	assert.True(t, strings.Contains(FOSPredictionsTableSQL, "stability_indicators Nullable(UInt8)"))
}

func TestPredictionRowRoundTrip(t *testing.T) {
	score := 2
	p := &models.FOSPrediction{
		ID:        uuid.NewString(),
		DeviceID:  "st-7",
		Timestamp: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		Reading:   models.SensorReading{models.ChannelPorePressure: 400},
		Reason:    "initial",
		Result: models.PredictionResult{
			FOS:                  1.55,
			SafetyClassification: models.Stable,
			AlertLevel:           models.AlertGreen,
			Confidence:           0.95,
			ModelUsed:            "rule-model-trained",
			StabilityIndicators:  &score,
			ThresholdsMet: map[string]bool{
				models.IndicatorDisplacement: true,
				models.IndicatorRainfall:     true,
				models.IndicatorPorePressure: false,
			},
		},
	}

	row, err := toPredictionRow(p)
	require.NoError(t, err)
	assert.Equal(t, "STABLE", row.SafetyClassification)
	require.NotNil(t, row.StabilityIndicators)
	assert.Equal(t, uint8(2), *row.StabilityIndicators)

	got, err := row.toPrediction()
	require.NoError(t, err)
	assert.Equal(t, *p, got)
}

func TestPredictionRowFallback(t *testing.T) {
	p := &models.FOSPrediction{
		ID:       uuid.NewString(),
		DeviceID: "st-7",
		Result: models.PredictionResult{
			FOS:                  1.4,
			SafetyClassification: models.Marginal,
			AlertLevel:           models.AlertYellow,
			Confidence:           0.3,
			ModelUsed:            "fallback",
		},
	}

	row, err := toPredictionRow(p)
	require.NoError(t, err)
	assert.Nil(t, row.StabilityIndicators)
	assert.Equal(t, "{}", row.ThresholdsMet)

	got, err := row.toPrediction()
	require.NoError(t, err)
	assert.Nil(t, got.Result.StabilityIndicators)
	assert.Nil(t, got.Result.ThresholdsMet)
}

func TestPredictionRowRejectsBadID(t *testing.T) {
	_, err := toPredictionRow(&models.FOSPrediction{ID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestNewClickHouseDBUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Nothing listens on port 1; Ping fails and the opened pool is released
	db, err := NewClickHouseDB(ctx, "127.0.0.1:1", "default", "default", "")
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to ping ClickHouse")
}
