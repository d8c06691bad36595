package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"mona-backend/internal/aggregator"
	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

// TelemetryService persists incoming samples, keeps the station registry
// current and feeds the station buffer
type TelemetryService struct {
	store  TelemetryStore // nil disables persistence
	buffer *aggregator.StationBuffer

	// Input channel from the MQTT subscriber
	SampleChan chan *models.ChannelSample
	// Output channel of prediction requests, closed when Start returns
	RequestChan chan *models.PredictionRequest

	registerInterval time.Duration
	sendTimeout      time.Duration

	mu       sync.Mutex
	stations map[string]*models.Device
}

// TelemetryServiceConfig holds configuration for the telemetry service
type TelemetryServiceConfig struct {
	SampleChannelSize  int
	RequestChannelSize int
	RegisterInterval   time.Duration // how often last_seen is refreshed in the registry
}

// DefaultTelemetryServiceConfig returns default configuration
func DefaultTelemetryServiceConfig() TelemetryServiceConfig {
	return TelemetryServiceConfig{
		SampleChannelSize:  200,
		RequestChannelSize: 50,
		RegisterInterval:   time.Minute,
	}
}

// NewTelemetryService creates a telemetry service and wires the buffer's
// prediction callback to RequestChan
func NewTelemetryService(store TelemetryStore, buffer *aggregator.StationBuffer, config TelemetryServiceConfig) *TelemetryService {
	s := &TelemetryService{
		store:            store,
		buffer:           buffer,
		SampleChan:       make(chan *models.ChannelSample, config.SampleChannelSize),
		RequestChan:      make(chan *models.PredictionRequest, config.RequestChannelSize),
		registerInterval: config.RegisterInterval,
		sendTimeout:      time.Second,
		stations:         make(map[string]*models.Device),
	}
	buffer.SetPredictionCallback(s.forwardRequest)
	return s
}

// Start processes samples until the context is cancelled or SampleChan is closed
func (s *TelemetryService) Start(ctx context.Context) {
	log.Info("TelemetryService: Starting...")
	defer func() {
		close(s.RequestChan)
		log.Info("TelemetryService: Shutdown complete")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-s.SampleChan:
			if !ok {
				return
			}
			s.ProcessSample(ctx, sample)
		}
	}
}

// ProcessSample handles a single channel sample
func (s *TelemetryService) ProcessSample(ctx context.Context, sample *models.ChannelSample) {
	if s.store != nil {
		if err := s.store.SaveSample(ctx, sample); err != nil {
			// Persistence is best effort; the sample still counts for prediction
			log.Errorw("TelemetryService: Error saving sample", "device_id", sample.DeviceID, "error", err)
		}
	}

	log.Debugw("TelemetryService: Sample received",
		"device_id", sample.DeviceID, "channel", sample.Channel, "value", sample.Value)

	s.registerStation(ctx, sample.DeviceID, sample.Timestamp)
	s.buffer.Update(sample)
}

// registerStation auto-registers a station on first message and refreshes
// its last_seen at most once per registerInterval
func (s *TelemetryService) registerStation(ctx context.Context, deviceID string, seen time.Time) {
	s.mu.Lock()
	device, known := s.stations[deviceID]
	if !known {
		device = models.NewDevice(deviceID, seen)
		s.stations[deviceID] = device
		log.Infof("TelemetryService: New station %s", deviceID)
	} else if seen.Sub(device.LastSeen) < s.registerInterval {
		s.mu.Unlock()
		return
	} else {
		device.LastSeen = seen
	}
	snapshot := *device
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.UpsertStation(ctx, &snapshot); err != nil {
		log.Warnw("TelemetryService: Error registering station", "device_id", deviceID, "error", err)
	}
}

func (s *TelemetryService) forwardRequest(req *models.PredictionRequest) {
	select {
	case s.RequestChan <- req:
	case <-time.After(s.sendTimeout):
		log.Warnf("TelemetryService: Request channel full, dropping prediction request for %s", req.DeviceID)
	}
}

// Stations returns the stations seen since start-up
func (s *TelemetryService) Stations() []models.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Device, 0, len(s.stations))
	for _, d := range s.stations {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}
