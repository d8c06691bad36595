package mqtt

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

var errUnknownChannel = errors.New("unknown sensor channel")

// Subscriber handles MQTT telemetry subscriptions and writes samples to a channel
type Subscriber struct {
	client mqtt.Client

	// Output channel (written by subscriber, read by the telemetry service)
	SampleChan chan *models.ChannelSample

	telemetryTopic string
	sendTimeout    time.Duration
	now            func() time.Time
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	TelemetryTopic string // e.g., "sensor/+/+"
}

// NewSubscriber creates a new MQTT subscriber writing to sampleChan
func NewSubscriber(client mqtt.Client, config SubscriberConfig, sampleChan chan *models.ChannelSample) *Subscriber {
	return &Subscriber{
		client:         client,
		SampleChan:     sampleChan,
		telemetryTopic: config.TelemetryTopic,
		sendTimeout:    time.Second,
		now:            time.Now,
	}
}

// SubscribeAll subscribes to the telemetry topic
func (s *Subscriber) SubscribeAll() error {
	if s.telemetryTopic == "" {
		return fmt.Errorf("no telemetry topic configured")
	}

	token := s.client.Subscribe(s.telemetryTopic, 1, s.handleTelemetry)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to telemetry topic: %w", token.Error())
	}
	log.Infof("MQTT Subscriber: Subscribed to telemetry topic %s", s.telemetryTopic)
	return nil
}

func (s *Subscriber) handleTelemetry(_ mqtt.Client, msg mqtt.Message) {
	sample, err := parseTelemetry(msg.Topic(), msg.Payload(), s.now())
	if err != nil {
		if errors.Is(err, errUnknownChannel) {
			log.Debugw("MQTT Subscriber: Ignoring message", "topic", msg.Topic(), "error", err)
		} else {
			log.Warnw("MQTT Subscriber: Dropping malformed telemetry", "topic", msg.Topic(), "error", err)
		}
		return
	}

	s.deliver(sample)
}

// deliver writes to SampleChan, dropping the sample if the channel stays full
func (s *Subscriber) deliver(sample *models.ChannelSample) bool {
	select {
	case s.SampleChan <- sample:
		return true
	case <-time.After(s.sendTimeout):
		log.Warnf("MQTT Subscriber: Sample channel full, dropping %s from %s", sample.Channel, sample.DeviceID)
		return false
	}
}

// parseTelemetry decodes a raw float payload from sensor/{device_id}/{channel}.
// The timestamp is assigned server-side.
func parseTelemetry(topic string, payload []byte, now time.Time) (*models.ChannelSample, error) {
	deviceID, channel := splitTopic(topic)
	if deviceID == "" || channel == "" {
		return nil, fmt.Errorf("could not extract device and channel from topic %q", topic)
	}
	if !models.IsChannel(channel) {
		return nil, fmt.Errorf("%w: %s", errUnknownChannel, channel)
	}

	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(payload)), "%f", &value); err != nil {
		return nil, fmt.Errorf("failed to parse %s value: %w", channel, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%s value is not finite", channel)
	}

	return &models.ChannelSample{
		Timestamp: now,
		DeviceID:  deviceID,
		Channel:   channel,
		Value:     value,
	}, nil
}

// splitTopic extracts device ID and channel from an MQTT topic
// Example: "sensor/bench-12/pore_pressure_kpa" -> "bench-12", "pore_pressure_kpa"
func splitTopic(topic string) (deviceID, channel string) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 {
		return "", ""
	}
	return parts[1], parts[2]
}
