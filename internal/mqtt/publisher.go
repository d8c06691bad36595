package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

// Publisher publishes FOS predictions from a channel
type Publisher struct {
	client mqtt.Client

	// Input channel (read by publisher, written by the prediction service)
	PredictionChan chan *models.FOSPrediction

	predictionTopic string // e.g., "fos/{device_id}/prediction"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	PredictionTopic string
}

// NewPublisher creates a new MQTT publisher reading from predictionChan
func NewPublisher(client mqtt.Client, config PublisherConfig, predictionChan chan *models.FOSPrediction) *Publisher {
	return &Publisher{
		client:          client,
		PredictionChan:  predictionChan,
		predictionTopic: config.PredictionTopic,
	}
}

// Start publishes predictions until the context is cancelled or the channel is closed
func (p *Publisher) Start(ctx context.Context) {
	log.Info("MQTT Publisher: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Info("MQTT Publisher: Context cancelled, shutting down...")
			return

		case prediction, ok := <-p.PredictionChan:
			if !ok {
				log.Info("MQTT Publisher: Prediction channel closed, shutting down...")
				return
			}

			if err := p.publishPrediction(prediction); err != nil {
				log.Errorw("MQTT Publisher: Error publishing prediction", "device_id", prediction.DeviceID, "error", err)
			}
		}
	}
}

func (p *Publisher) publishPrediction(prediction *models.FOSPrediction) error {
	payload, err := json.Marshal(prediction)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	topic := formatTopic(p.predictionTopic, prediction.DeviceID)

	// Retained: late subscribers receive each station's latest FOS
	token := p.client.Publish(topic, 1, true, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish prediction: %w", token.Error())
	}

	log.Debugw("MQTT Publisher: Published prediction",
		"device_id", prediction.DeviceID, "topic", topic, "alert", prediction.Result.AlertLevel)
	return nil
}

// formatTopic replaces {device_id} placeholder with actual device ID
func formatTopic(topicPattern, deviceID string) string {
	return strings.ReplaceAll(topicPattern, "{device_id}", deviceID)
}
