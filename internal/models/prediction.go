package models

import (
	"fmt"
	"time"
)

// SafetyClass is the ordered slope safety classification
type SafetyClass int

const (
	Unstable SafetyClass = iota
	Critical
	Marginal
	Stable
	VeryStable
)

var safetyClassNames = [...]string{"UNSTABLE", "CRITICAL", "MARGINAL", "STABLE", "VERY_STABLE"}

func (c SafetyClass) String() string {
	if c < Unstable || c > VeryStable {
		return fmt.Sprintf("SafetyClass(%d)", int(c))
	}
	return safetyClassNames[c]
}

func (c SafetyClass) MarshalText() ([]byte, error) {
	if c < Unstable || c > VeryStable {
		return nil, fmt.Errorf("invalid safety classification %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *SafetyClass) UnmarshalText(text []byte) error {
	for i, name := range safetyClassNames {
		if name == string(text) {
			*c = SafetyClass(i)
			return nil
		}
	}
	return fmt.Errorf("unknown safety classification %q", text)
}

// AlertLevel is the operational alert derived from the safety classification
type AlertLevel string

const (
	AlertRed    AlertLevel = "RED"
	AlertOrange AlertLevel = "ORANGE"
	AlertYellow AlertLevel = "YELLOW"
	AlertGreen  AlertLevel = "GREEN"
)

// Alert returns the alert level for a classification
func (c SafetyClass) Alert() AlertLevel {
	switch c {
	case VeryStable, Stable:
		return AlertGreen
	case Marginal:
		return AlertYellow
	case Critical:
		return AlertOrange
	default:
		return AlertRed
	}
}

// Keys of PredictionResult.ThresholdsMet
const (
	IndicatorDisplacement = "displacement"
	IndicatorRainfall     = "rainfall"
	IndicatorPorePressure = "pore_pressure"
)

// PredictionResult is the output of a single FOS prediction
type PredictionResult struct {
	FOS                  float64         `json:"fos"`
	SafetyClassification SafetyClass     `json:"safety_classification"`
	AlertLevel           AlertLevel      `json:"alert_level"`
	Confidence           float64         `json:"confidence"`
	ModelUsed            string          `json:"model_used"`
	StabilityIndicators  *int            `json:"stability_indicators,omitempty"` // nil on the fallback path
	ThresholdsMet        map[string]bool `json:"thresholds_met,omitempty"`
}

// FOSPrediction is a prediction for a station, as stored and published
type FOSPrediction struct {
	ID        string           `json:"id"`
	DeviceID  string           `json:"device_id"`
	Timestamp time.Time        `json:"timestamp"`
	Reading   SensorReading    `json:"reading"`
	Reason    string           `json:"reason"`
	Result    PredictionResult `json:"result"`
}
