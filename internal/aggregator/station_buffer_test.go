package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mona-backend/internal/ml"
	"mona-backend/internal/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBuffer(t *testing.T) (*StationBuffer, *fakeClock, *[]*models.PredictionRequest) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	b := NewStationBuffer(ChangeThresholds{
		Deltas: map[string]float64{
			models.ChannelDisplacement: 0.1,
			models.ChannelRainfall:     0.5,
			models.ChannelPorePressure: 5.0,
		},
		MinInterval: 5 * time.Second,
	})
	b.SetClock(clock.Now)

	var reqs []*models.PredictionRequest
	b.SetPredictionCallback(func(r *models.PredictionRequest) {
		reqs = append(reqs, r)
	})
	return b, clock, &reqs
}

func sample(device, channel string, v float64) *models.ChannelSample {
	return &models.ChannelSample{DeviceID: device, Channel: channel, Value: v}
}

// fill reports every required channel for a station; the last sample
// completes the reading
func fill(b *StationBuffer, device string, displacement, rainfall, pore float64) bool {
	b.Update(sample(device, models.ChannelDisplacement, displacement))
	b.Update(sample(device, models.ChannelRainfall, rainfall))
	return b.Update(sample(device, models.ChannelPorePressure, pore))
}

func TestStationBufferWaitsForRequiredChannels(t *testing.T) {
	b, clock, reqs := newTestBuffer(t)

	assert.False(t, b.Update(sample("st-1", models.ChannelTilt, 0.4)))
	clock.Advance(100 * time.Millisecond)
	assert.False(t, b.Update(sample("st-1", models.ChannelDisplacement, 5)))
	clock.Advance(100 * time.Millisecond)
	assert.False(t, b.Update(sample("st-1", models.ChannelRainfall, 10)))
	assert.Empty(t, *reqs)

	clock.Advance(100 * time.Millisecond)
	assert.True(t, b.Update(sample("st-1", models.ChannelPorePressure, 400)))

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, "st-1", req.DeviceID)
	assert.Equal(t, "initial", req.Reason)
	assert.Equal(t, models.SensorReading{
		models.ChannelTilt:         0.4,
		models.ChannelDisplacement: 5,
		models.ChannelRainfall:     10,
		models.ChannelPorePressure: 400,
	}, req.Reading)
	assert.Equal(t, 0, ml.ComputeStability(req.Reading, ml.DefaultThresholds()).Score)
}

func TestStationBufferChangeDetection(t *testing.T) {
	b, clock, reqs := newTestBuffer(t)
	require.True(t, fill(b, "st-1", 0.8, 1, 250))
	clock.Advance(10 * time.Second)

	// Below every delta
	assert.False(t, b.Update(sample("st-1", models.ChannelDisplacement, 0.85)))

	// Tilt has no delta configured
	assert.False(t, b.Update(sample("st-1", models.ChannelTilt, 9.0)))

	assert.True(t, b.Update(sample("st-1", models.ChannelDisplacement, 1.0)))
	require.Len(t, *reqs, 2)
	assert.Contains(t, (*reqs)[1].Reason, "displacement_mm changed")
	assert.Equal(t, 9.0, (*reqs)[1].Reading[models.ChannelTilt])
}

func TestStationBufferNewChannelSinceLastPrediction(t *testing.T) {
	b, clock, reqs := newTestBuffer(t)
	b.thresholds.Deltas[models.ChannelTilt] = 0.5
	require.True(t, fill(b, "st-1", 0.8, 1, 250))
	clock.Advance(10 * time.Second)

	assert.True(t, b.Update(sample("st-1", models.ChannelTilt, 0.2)))
	require.Len(t, *reqs, 2)
	assert.Equal(t, "tilt_degrees reported", (*reqs)[1].Reason)
}

func TestStationBufferRateLimitedChangeStaysPending(t *testing.T) {
	b, clock, reqs := newTestBuffer(t)
	require.True(t, fill(b, "st-1", 0.8, 1, 250))

	clock.Advance(2 * time.Second)
	assert.False(t, b.Update(sample("st-1", models.ChannelPorePressure, 300)))
	assert.Len(t, *reqs, 1)

	// Pore pressure falls back inside the interval; the held change is still owed
	clock.Advance(time.Second)
	assert.False(t, b.Update(sample("st-1", models.ChannelPorePressure, 252)))

	// An unchanged sample after the interval releases it
	clock.Advance(5 * time.Second)
	assert.True(t, b.Update(sample("st-1", models.ChannelRainfall, 1)))
	require.Len(t, *reqs, 2)
	assert.Equal(t, "pore_pressure_kpa changed by 50.000", (*reqs)[1].Reason)
	assert.Equal(t, 252.0, (*reqs)[1].Reading[models.ChannelPorePressure])

	// Released once only
	clock.Advance(10 * time.Second)
	assert.False(t, b.Update(sample("st-1", models.ChannelRainfall, 1)))
	assert.Len(t, *reqs, 2)
}

func TestStationBufferStationsAreIndependent(t *testing.T) {
	b, _, reqs := newTestBuffer(t)

	assert.True(t, fill(b, "st-2", 0.5, 1, 200))
	assert.True(t, fill(b, "st-1", 0.5, 1, 200))
	b.Update(sample("st-3", models.ChannelRainfall, 1))

	assert.Len(t, *reqs, 2)
	assert.Equal(t, []string{"st-1", "st-2", "st-3"}, b.GetAllStations())

	reading, ok := b.GetStationState("st-3")
	require.True(t, ok)
	assert.Equal(t, models.SensorReading{models.ChannelRainfall: 1}, reading)

	_, ok = b.GetStationState("missing")
	assert.False(t, ok)
}

func TestStationBufferEmittedReadingIsCopy(t *testing.T) {
	b, clock, reqs := newTestBuffer(t)
	fill(b, "st-1", 0.5, 1, 200)
	clock.Advance(time.Minute)
	b.Update(sample("st-1", models.ChannelDisplacement, 2.0))

	require.Len(t, *reqs, 2)
	assert.Equal(t, 0.5, (*reqs)[0].Reading[models.ChannelDisplacement])
	assert.Equal(t, 2.0, (*reqs)[1].Reading[models.ChannelDisplacement])
}

func TestStationBufferWithoutCallback(t *testing.T) {
	b := NewStationBuffer(ChangeThresholds{})
	assert.False(t, fill(b, "st-1", 1, 1, 1))
	assert.Equal(t, []string{"st-1"}, b.GetAllStations())
}
