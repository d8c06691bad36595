package services

import (
	"context"

	"mona-backend/internal/models"
)

// TelemetryStore persists raw samples and the station registry
type TelemetryStore interface {
	SaveSample(ctx context.Context, sample *models.ChannelSample) error
	UpsertStation(ctx context.Context, device *models.Device) error
}

// PredictionStore persists FOS predictions
type PredictionStore interface {
	SavePrediction(ctx context.Context, prediction *models.FOSPrediction) error
}

// Predictor produces a FOS prediction for a reading; it must never fail
type Predictor interface {
	Predict(reading models.SensorReading) models.PredictionResult
}
