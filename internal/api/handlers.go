package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mona-backend/internal/log"
	"mona-backend/internal/ml"
	"mona-backend/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Engine is the prediction engine as seen by the API
type Engine interface {
	Predict(reading models.SensorReading) models.PredictionResult
	LoadedArtifacts() []string
	FallbackMode() bool
	Thresholds() ml.ThresholdSet
	ModelVersion() string
	Describe() []ml.ArtifactStatus
}

// StationLister lists the stations seen by the telemetry pipeline
type StationLister interface {
	Stations() []models.Device
}

// LatestPredictions returns the most recent prediction per station
type LatestPredictions interface {
	Latest(deviceID string) (models.FOSPrediction, bool)
}

// PredictionHistory reads stored predictions
type PredictionHistory interface {
	RecentPredictions(ctx context.Context, deviceID string, limit int) ([]models.FOSPrediction, error)
}

// BrokerStatus reports the MQTT broker connection state
type BrokerStatus interface {
	Connected() bool
}

// Handlers contains the HTTP handlers. Only the engine is required; the
// station endpoints degrade when their sources are nil.
type Handlers struct {
	engine   Engine
	stations StationLister
	latest   LatestPredictions
	history  PredictionHistory
	broker   BrokerStatus // nil when MQTT is disabled
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine Engine, stations StationLister, latest LatestPredictions, history PredictionHistory) *Handlers {
	return &Handlers{
		engine:   engine,
		stations: stations,
		latest:   latest,
		history:  history,
		now:      time.Now,
	}
}

// SetBrokerStatus makes Health report the MQTT connection state
func (h *Handlers) SetBrokerStatus(broker BrokerStatus) {
	h.broker = broker
}

func sendJSON(w http.ResponseWriter, data interface{}) {
	sendJSONWithStatus(w, http.StatusOK, data)
}

func sendJSONWithStatus(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnw("API: Error encoding response", "error", err)
	}
}

func sendError(w http.ResponseWriter, statusCode int, message string, err error) {
	resp := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}
	if err != nil {
		resp["details"] = err.Error()
	}
	sendJSONWithStatus(w, statusCode, resp)
}

type healthResponse struct {
	Status        string              `json:"status"`
	ModelsLoaded  bool                `json:"models_loaded"`
	TrainedModels []string            `json:"trained_models"`
	FallbackMode  bool                `json:"fallback_mode"`
	ModelVersion  string              `json:"model_version,omitempty"`
	Artifacts     []ml.ArtifactStatus `json:"artifacts"`
	MQTTConnected *bool               `json:"mqtt_connected,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// Health reports engine status. The service is healthy even in fallback mode.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	loaded := h.engine.LoadedArtifacts()
	if loaded == nil {
		loaded = []string{}
	}
	resp := healthResponse{
		Status:        "healthy",
		ModelsLoaded:  len(loaded) > 0,
		TrainedModels: loaded,
		FallbackMode:  h.engine.FallbackMode(),
		ModelVersion:  h.engine.ModelVersion(),
		Artifacts:     h.engine.Describe(),
		Timestamp:     h.now().UTC(),
	}
	if h.broker != nil {
		connected := h.broker.Connected()
		resp.MQTTConnected = &connected
	}
	sendJSON(w, resp)
}

// Predict runs a single prediction over the posted reading
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var reading models.SensorReading
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&reading); err != nil {
		sendError(w, http.StatusBadRequest, "invalid sensor reading", err)
		return
	}

	for channel := range reading {
		if !models.IsChannel(channel) {
			delete(reading, channel)
		}
	}

	sendJSON(w, h.engine.Predict(reading))
}

// Thresholds returns the active critical thresholds
func (h *Handlers) Thresholds(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.engine.Thresholds())
}

// Stations lists the stations seen since start-up
func (h *Handlers) Stations(w http.ResponseWriter, r *http.Request) {
	stations := []models.Device{}
	if h.stations != nil {
		stations = h.stations.Stations()
	}
	sendJSON(w, stations)
}

// LatestPrediction returns the station's most recent prediction
func (h *Handlers) LatestPrediction(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	if h.latest == nil {
		sendError(w, http.StatusNotFound, "no prediction for station "+deviceID, nil)
		return
	}
	p, ok := h.latest.Latest(deviceID)
	if !ok {
		sendError(w, http.StatusNotFound, "no prediction for station "+deviceID, nil)
		return
	}
	sendJSON(w, p)
}

// RecentPredictions returns stored predictions for a station, newest first
func (h *Handlers) RecentPredictions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		sendError(w, http.StatusServiceUnavailable, "prediction history is not available", nil)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			sendError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit), err)
			return
		}
		limit = n
	}

	deviceID := chi.URLParam(r, "deviceID")
	predictions, err := h.history.RecentPredictions(r.Context(), deviceID, limit)
	if err != nil {
		log.Errorw("API: Error reading prediction history", "device_id", deviceID, "error", err)
		sendError(w, http.StatusInternalServerError, "failed to read prediction history", err)
		return
	}
	if predictions == nil {
		predictions = []models.FOSPrediction{}
	}
	sendJSON(w, predictions)
}
