package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Infof("ClickHouse: Connected at %s", addr)

	db := &ClickHouseDB{conn: conn}

	if err := db.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Info("ClickHouse: Database schema initialized")
	return nil
}

// SaveSample saves a single channel sample
func (db *ClickHouseDB) SaveSample(ctx context.Context, sample *models.ChannelSample) error {
	query := `
		INSERT INTO sensor_telemetry (timestamp, device_id, channel, value)
		VALUES (?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		sample.Timestamp,
		sample.DeviceID,
		sample.Channel,
		sample.Value,
	)

	if err != nil {
		return fmt.Errorf("failed to insert %s sample: %w", sample.Channel, err)
	}

	return nil
}

// predictionRow is the column layout of fos_predictions
type predictionRow struct {
	ID                   uuid.UUID
	Timestamp            time.Time
	DeviceID             string
	FOS                  float64
	SafetyClassification string
	AlertLevel           string
	Confidence           float64
	ModelUsed            string
	StabilityIndicators  *uint8
	ThresholdsMet        string
	Reading              string
	Reason               string
}

func toPredictionRow(p *models.FOSPrediction) (*predictionRow, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid prediction id %q: %w", p.ID, err)
	}

	met := "{}"
	if p.Result.ThresholdsMet != nil {
		data, err := json.Marshal(p.Result.ThresholdsMet)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal thresholds_met: %w", err)
		}
		met = string(data)
	}

	reading, err := json.Marshal(p.Reading)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reading: %w", err)
	}

	row := &predictionRow{
		ID:                   id,
		Timestamp:            p.Timestamp,
		DeviceID:             p.DeviceID,
		FOS:                  p.Result.FOS,
		SafetyClassification: p.Result.SafetyClassification.String(),
		AlertLevel:           string(p.Result.AlertLevel),
		Confidence:           p.Result.Confidence,
		ModelUsed:            p.Result.ModelUsed,
		ThresholdsMet:        met,
		Reading:              string(reading),
		Reason:               p.Reason,
	}
	if p.Result.StabilityIndicators != nil {
		score := uint8(*p.Result.StabilityIndicators)
		row.StabilityIndicators = &score
	}
	return row, nil
}

func (r *predictionRow) toPrediction() (models.FOSPrediction, error) {
	p := models.FOSPrediction{
		ID:        r.ID.String(),
		DeviceID:  r.DeviceID,
		Timestamp: r.Timestamp,
		Reason:    r.Reason,
		Result: models.PredictionResult{
			FOS:        r.FOS,
			AlertLevel: models.AlertLevel(r.AlertLevel),
			Confidence: r.Confidence,
			ModelUsed:  r.ModelUsed,
		},
	}

	if err := p.Result.SafetyClassification.UnmarshalText([]byte(r.SafetyClassification)); err != nil {
		return p, err
	}
	if r.StabilityIndicators != nil {
		score := int(*r.StabilityIndicators)
		p.Result.StabilityIndicators = &score
		if err := json.Unmarshal([]byte(r.ThresholdsMet), &p.Result.ThresholdsMet); err != nil {
			return p, fmt.Errorf("failed to unmarshal thresholds_met: %w", err)
		}
	}
	if r.Reading != "" {
		if err := json.Unmarshal([]byte(r.Reading), &p.Reading); err != nil {
			return p, fmt.Errorf("failed to unmarshal reading: %w", err)
		}
	}
	return p, nil
}

// SavePrediction saves a FOS prediction to the database
func (db *ClickHouseDB) SavePrediction(ctx context.Context, prediction *models.FOSPrediction) error {
	row, err := toPredictionRow(prediction)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO fos_predictions (id, timestamp, device_id, fos, safety_classification, alert_level,
			confidence, model_used, stability_indicators, thresholds_met, reading, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = db.conn.Exec(ctx, query,
		row.ID,
		row.Timestamp,
		row.DeviceID,
		row.FOS,
		row.SafetyClassification,
		row.AlertLevel,
		row.Confidence,
		row.ModelUsed,
		row.StabilityIndicators,
		row.ThresholdsMet,
		row.Reading,
		row.Reason,
	)

	if err != nil {
		return fmt.Errorf("failed to insert FOS prediction: %w", err)
	}

	log.Debugw("ClickHouse: Saved FOS prediction",
		"device_id", prediction.DeviceID, "fos", prediction.Result.FOS, "alert", prediction.Result.AlertLevel)
	return nil
}

// UpsertStation inserts or updates a station in the registry
func (db *ClickHouseDB) UpsertStation(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO station_registry (device_id, name, sector, registered_at, last_seen, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		device.DeviceID,
		device.Name,
		device.Sector,
		device.RegisteredAt,
		device.LastSeen,
		device.IsActive,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert station: %w", err)
	}

	return nil
}

// RecentPredictions returns the latest predictions for a station, newest first
func (db *ClickHouseDB) RecentPredictions(ctx context.Context, deviceID string, limit int) ([]models.FOSPrediction, error) {
	query := `
		SELECT id, timestamp, device_id, fos, safety_classification, alert_level,
			confidence, model_used, stability_indicators, thresholds_met, reading, reason
		FROM fos_predictions
		WHERE device_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.conn.Query(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query FOS predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.FOSPrediction
	for rows.Next() {
		var r predictionRow
		if err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&r.DeviceID,
			&r.FOS,
			&r.SafetyClassification,
			&r.AlertLevel,
			&r.Confidence,
			&r.ModelUsed,
			&r.StabilityIndicators,
			&r.ThresholdsMet,
			&r.Reading,
			&r.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan FOS prediction: %w", err)
		}

		p, err := r.toPrediction()
		if err != nil {
			return nil, fmt.Errorf("failed to decode FOS prediction %s: %w", r.ID, err)
		}
		predictions = append(predictions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read FOS predictions: %w", err)
	}
	return predictions, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Info("ClickHouse: Connection closed")
	}
	return nil
}
