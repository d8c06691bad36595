package models

import "time"

// Device represents a slope monitoring station in the pit
type Device struct {
	DeviceID     string    `json:"device_id"`
	Name         string    `json:"name"`
	Sector       string    `json:"sector"` // pit wall sector, "Unknown" until assigned
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	IsActive     bool      `json:"is_active"`
}

// NewDevice returns a freshly seen, active station
func NewDevice(deviceID string, now time.Time) *Device {
	return &Device{
		DeviceID:     deviceID,
		Name:         deviceID,
		Sector:       "Unknown",
		RegisteredAt: now,
		LastSeen:     now,
		IsActive:     true,
	}
}
