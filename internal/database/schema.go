package database

// SQL schemas for all ClickHouse tables

const (
	// SensorTelemetryTableSQL creates the sensor_telemetry table, one row per channel sample
	SensorTelemetryTableSQL = `
		CREATE TABLE IF NOT EXISTS sensor_telemetry (
			timestamp DateTime64(3),
			device_id String,
			channel LowCardinality(String),
			value Float64
		) ENGINE = MergeTree()
		ORDER BY (device_id, channel, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// FOSPredictionsTableSQL creates the fos_predictions table.
	// stability_indicators is NULL for fallback predictions.
	FOSPredictionsTableSQL = `
		CREATE TABLE IF NOT EXISTS fos_predictions (
			id UUID,
			timestamp DateTime64(3),
			device_id String,
			fos Float64,
			safety_classification LowCardinality(String),
			alert_level LowCardinality(String),
			confidence Float64,
			model_used LowCardinality(String),
			stability_indicators Nullable(UInt8),
			thresholds_met String,
			reading String,
			reason String
		) ENGINE = MergeTree()
		ORDER BY (device_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// StationRegistryTableSQL creates the station_registry table
	StationRegistryTableSQL = `
		CREATE TABLE IF NOT EXISTS station_registry (
			device_id String,
			name String,
			sector String,
			registered_at DateTime64(3),
			last_seen DateTime64(3),
			is_active Bool
		) ENGINE = ReplacingMergeTree(last_seen)
		ORDER BY device_id
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		SensorTelemetryTableSQL,
		FOSPredictionsTableSQL,
		StationRegistryTableSQL,
	}
}
