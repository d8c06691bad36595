package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"mona-backend/internal/models"
)

// RuleEvaluator is the rule-model capability used on the trained path. The
// underlying rules may be interpretable or opaque; callers only see the
// stability outcome.
type RuleEvaluator interface {
	Evaluate(reading models.SensorReading, thresholds ThresholdSet) (Stability, error)
	RuleCount() int
}

// RuleModel is the exported M5Rules-GA artifact.
//
// RuleWeights and Bias are carried from the trained artifact but not applied:
// the FOS comes from the stability band alone. They are reserved for a fuller
// rule evaluation.
type RuleModel struct {
	Rules       []json.RawMessage `json:"rules"`
	RuleWeights []float64         `json:"rule_weights"`
	Bias        float64           `json:"bias"`
}

// LoadRuleModel reads a rule model artifact from disk
func LoadRuleModel(path string) (*RuleModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule model: %w", err)
	}

	var model RuleModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule model: %w", err)
	}
	if model.Rules == nil {
		return nil, fmt.Errorf("rule model has no rules")
	}

	return &model, nil
}

func (m *RuleModel) RuleCount() int {
	return len(m.Rules)
}

// Evaluate applies the trained thresholds to the reading. Non-finite channel
// values are a prediction fault.
func (m *RuleModel) Evaluate(reading models.SensorReading, thresholds ThresholdSet) (Stability, error) {
	for channel, v := range reading {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Stability{}, fmt.Errorf("%w: %s is not finite", ErrPredictionFault, channel)
		}
	}
	return ComputeStability(reading, thresholds), nil
}
