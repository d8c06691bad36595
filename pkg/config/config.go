package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"mona-backend/internal/log"
)

type Config struct {
	// Prediction engine
	ModelDir   string
	RandomSeed int64 // 0 means seed from the clock

	// HTTP API
	HTTPAddr string
	Debug    bool

	// MQTT Configuration
	MQTTEnabled  bool
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	MQTTTopicTelemetry  string
	MQTTTopicPrediction string

	// ClickHouse Configuration
	ClickHouseEnabled bool
	ClickHouseAddr    string
	ClickHouseDB      string
	ClickHouseUser    string
	ClickHousePass    string

	// Change detection: a station is re-evaluated when a channel moves by at
	// least this much since its last prediction.
	DisplacementDelta     float64
	RainfallDelta         float64
	PorePressureDelta     float64
	TiltDelta             float64
	PredictionMinInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ModelDir:   getEnv("MODEL_DIR", "./trained_models"),
		RandomSeed: getEnvInt("RANDOM_SEED", 0),

		HTTPAddr: getEnv("HTTP_ADDR", ":5000"),
		Debug:    getEnvBool("DEBUG", false),

		MQTTEnabled:  getEnvBool("MQTT_ENABLED", true),
		MQTTBroker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "mona-backend"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		MQTTTopicTelemetry:  getEnv("MQTT_TOPIC_TELEMETRY", "sensor/+/+"),
		MQTTTopicPrediction: getEnv("MQTT_TOPIC_PREDICTION", "fos/{device_id}/prediction"),

		ClickHouseEnabled: getEnvBool("CLICKHOUSE_ENABLED", true),
		ClickHouseAddr:    getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:      getEnv("CLICKHOUSE_DB", "mona"),
		ClickHouseUser:    getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:    getEnv("CLICKHOUSE_PASS", ""),

		DisplacementDelta:     getEnvFloat("DISPLACEMENT_DELTA", 0.1),
		RainfallDelta:         getEnvFloat("RAINFALL_DELTA", 0.5),
		PorePressureDelta:     getEnvFloat("PORE_PRESSURE_DELTA", 5.0),
		TiltDelta:             getEnvFloat("TILT_DELTA", 0.1),
		PredictionMinInterval: getEnvDuration("PREDICTION_MIN_INTERVAL", 5*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warnf("failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Warnf("failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Warnf("failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warnf("failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}
