package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

// PredictionService runs FOS predictions for requests produced by the
// station buffer, persists them and hands them to the publisher
type PredictionService struct {
	predictor Predictor
	store     PredictionStore // nil disables persistence

	// Output channel for the MQTT publisher; nil when MQTT is disabled.
	// Closed when Start returns.
	PredictionChan chan *models.FOSPrediction

	sendTimeout time.Duration

	mu     sync.RWMutex
	latest map[string]models.FOSPrediction
}

// NewPredictionService creates a prediction service. publish may be nil.
func NewPredictionService(predictor Predictor, store PredictionStore, publish chan *models.FOSPrediction) *PredictionService {
	return &PredictionService{
		predictor:      predictor,
		store:          store,
		PredictionChan: publish,
		sendTimeout:    time.Second,
		latest:         make(map[string]models.FOSPrediction),
	}
}

// Start handles requests until the context is cancelled or requests is closed
func (s *PredictionService) Start(ctx context.Context, requests <-chan *models.PredictionRequest) {
	log.Info("PredictionService: Starting...")
	defer func() {
		if s.PredictionChan != nil {
			close(s.PredictionChan)
		}
		log.Info("PredictionService: Shutdown complete")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			s.Handle(ctx, req)
		}
	}
}

// Handle predicts, records and forwards a single request
func (s *PredictionService) Handle(ctx context.Context, req *models.PredictionRequest) *models.FOSPrediction {
	result := s.predictor.Predict(req.Reading)

	prediction := &models.FOSPrediction{
		ID:        uuid.NewString(),
		DeviceID:  req.DeviceID,
		Timestamp: req.Timestamp,
		Reading:   req.Reading,
		Reason:    req.Reason,
		Result:    result,
	}

	log.Infow("PredictionService: FOS prediction",
		"device_id", req.DeviceID,
		"fos", result.FOS,
		"classification", result.SafetyClassification,
		"alert", result.AlertLevel,
		"model", result.ModelUsed,
		"reason", req.Reason)

	s.mu.Lock()
	s.latest[req.DeviceID] = *prediction
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SavePrediction(ctx, prediction); err != nil {
			log.Errorw("PredictionService: Error saving prediction", "device_id", req.DeviceID, "error", err)
		}
	}

	if s.PredictionChan != nil {
		select {
		case s.PredictionChan <- prediction:
		case <-time.After(s.sendTimeout):
			log.Warnf("PredictionService: Publish channel full, dropping prediction for %s", req.DeviceID)
		}
	}

	return prediction
}

// Latest returns the most recent prediction for a station
func (s *PredictionService) Latest(deviceID string) (models.FOSPrediction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.latest[deviceID]
	return p, ok
}
