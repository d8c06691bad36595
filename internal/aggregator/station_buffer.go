package aggregator

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

// ChangeThresholds defines how far a channel must move since the last
// prediction before a station is re-evaluated
type ChangeThresholds struct {
	Deltas      map[string]float64 // per channel; channels without a delta never trigger
	MinInterval time.Duration      // minimum time between predictions for one station
}

// requiredChannels must all have reported before a station is evaluated;
// a missing one would be scored from its default and read as stable
var requiredChannels = []string{
	models.ChannelDisplacement,
	models.ChannelRainfall,
	models.ChannelPorePressure,
}

// StationState holds the latest channel values for one station
type StationState struct {
	DeviceID         string
	Latest           models.SensorReading
	LastSeen         time.Time
	LastPredicted    models.SensorReading // values at the last emitted request, nil before the first
	LastPredictionAt time.Time
	Pending          string // reason of a change held back by MinInterval, empty when none
	mu               sync.Mutex
}

// StationBuffer buffers channel samples per station and decides when a
// station needs a new FOS prediction
type StationBuffer struct {
	stations   map[string]*StationState
	thresholds ChangeThresholds
	now        func() time.Time
	mu         sync.RWMutex

	// Callback for triggering a prediction
	onPredictionNeeded func(*models.PredictionRequest)
}

// NewStationBuffer creates a new station buffer
func NewStationBuffer(thresholds ChangeThresholds) *StationBuffer {
	return &StationBuffer{
		stations:   make(map[string]*StationState),
		thresholds: thresholds,
		now:        time.Now,
	}
}

// SetPredictionCallback sets the callback function for prediction requests
func (b *StationBuffer) SetPredictionCallback(callback func(*models.PredictionRequest)) {
	b.onPredictionNeeded = callback
}

// SetClock replaces the time source
func (b *StationBuffer) SetClock(now func() time.Time) {
	b.now = now
}

func (b *StationBuffer) getOrCreateStation(deviceID string) *StationState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if st, exists := b.stations[deviceID]; exists {
		return st
	}

	st := &StationState{
		DeviceID: deviceID,
		Latest:   make(models.SensorReading),
	}
	b.stations[deviceID] = st
	return st
}

// Update records a sample and triggers a prediction once every required
// channel has reported, then whenever a channel moves past its delta. A
// change that arrives inside MinInterval stays pending and is emitted by the
// first Update after the interval. It reports whether a request was emitted.
func (b *StationBuffer) Update(sample *models.ChannelSample) bool {
	st := b.getOrCreateStation(sample.DeviceID)

	st.mu.Lock()
	st.Latest[sample.Channel] = sample.Value
	st.LastSeen = sample.Timestamp

	if missing := missingChannels(st.Latest); len(missing) > 0 {
		log.Debugw("StationBuffer: Incomplete reading, waiting before prediction",
			"device_id", st.DeviceID, "missing", missing)
		st.mu.Unlock()
		return false
	}

	reason, ok := b.changeReason(st)
	if !ok && st.Pending != "" {
		reason, ok = st.Pending, true
	}
	if !ok {
		st.mu.Unlock()
		return false
	}

	now := b.now()
	if !st.LastPredictionAt.IsZero() && now.Sub(st.LastPredictionAt) < b.thresholds.MinInterval {
		log.Debugw("StationBuffer: Rate limiting prediction",
			"device_id", st.DeviceID, "since_last", now.Sub(st.LastPredictionAt), "reason", reason)
		st.Pending = reason
		st.mu.Unlock()
		return false
	}

	req := &models.PredictionRequest{
		DeviceID:  st.DeviceID,
		Timestamp: now,
		Reading:   st.Latest.Clone(),
		Reason:    reason,
	}
	st.LastPredicted = req.Reading.Clone()
	st.LastPredictionAt = now
	st.Pending = ""
	st.mu.Unlock()

	if b.onPredictionNeeded == nil {
		log.Warnf("StationBuffer: No prediction callback set, skipping prediction for %s", req.DeviceID)
		return false
	}

	log.Infow("StationBuffer: Triggering prediction", "device_id", req.DeviceID, "reason", reason)
	b.onPredictionNeeded(req)
	return true
}

func missingChannels(reading models.SensorReading) []string {
	var missing []string
	for _, channel := range requiredChannels {
		if _, ok := reading[channel]; !ok {
			missing = append(missing, channel)
		}
	}
	return missing
}

// changeReason must be called with st.mu held
func (b *StationBuffer) changeReason(st *StationState) (string, bool) {
	if st.LastPredicted == nil {
		return "initial", true
	}

	for _, channel := range models.Channels() {
		delta, ok := b.thresholds.Deltas[channel]
		if !ok {
			continue
		}
		v, seen := st.Latest[channel]
		if !seen {
			continue
		}
		prev, had := st.LastPredicted[channel]
		if !had {
			return fmt.Sprintf("%s reported", channel), true
		}
		if math.Abs(v-prev) >= delta {
			return fmt.Sprintf("%s changed by %.3f", channel, math.Abs(v-prev)), true
		}
	}
	return "", false
}

// GetStationState returns the latest reading for a station
func (b *StationBuffer) GetStationState(deviceID string) (models.SensorReading, bool) {
	b.mu.RLock()
	st, ok := b.stations[deviceID]
	b.mu.RUnlock()
	if !ok {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.Latest.Clone(), true
}

// GetAllStations returns all station IDs in sorted order
func (b *StationBuffer) GetAllStations() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stations := make([]string, 0, len(b.stations))
	for deviceID := range b.stations {
		stations = append(stations, deviceID)
	}
	sort.Strings(stations)
	return stations
}
