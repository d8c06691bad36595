package models

import "time"

// Sensor channels reported by slope monitoring stations
const (
	ChannelDisplacement = "displacement_mm"
	ChannelRainfall     = "rainfall_mm"
	ChannelPorePressure = "pore_pressure_kpa"
	ChannelTilt         = "tilt_degrees"
)

// Values used when a channel is absent from a reading
var channelDefaults = map[string]float64{
	ChannelDisplacement: 1.0,
	ChannelRainfall:     2.0,
	ChannelPorePressure: 250.0,
	ChannelTilt:         0.5,
}

// Channels returns the known sensor channels in a fixed order
func Channels() []string {
	return []string{ChannelDisplacement, ChannelRainfall, ChannelPorePressure, ChannelTilt}
}

// IsChannel reports whether name is a known sensor channel
func IsChannel(name string) bool {
	_, ok := channelDefaults[name]
	return ok
}

// SensorReading maps channel name to measurement
type SensorReading map[string]float64

// Value returns the channel measurement, or the channel default when missing
func (r SensorReading) Value(channel string) float64 {
	if v, ok := r[channel]; ok {
		return v
	}
	return channelDefaults[channel]
}

// Clone returns a copy of the reading
func (r SensorReading) Clone() SensorReading {
	out := make(SensorReading, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ChannelSample is a single channel value received from a station
type ChannelSample struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Channel   string    `json:"channel"`
	Value     float64   `json:"value"`
}

// PredictionRequest asks for a FOS prediction over a station's latest values
type PredictionRequest struct {
	DeviceID  string        `json:"device_id"`
	Timestamp time.Time     `json:"timestamp"`
	Reading   SensorReading `json:"reading"`
	Reason    string        `json:"reason"`
}
