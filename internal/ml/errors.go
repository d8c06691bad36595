package ml

import "errors"

var (
	// ErrConfigMissing means model_config.json was absent or unusable; the
	// predictor runs in permanent fallback mode with default thresholds.
	ErrConfigMissing = errors.New("model configuration missing")

	// ErrArtifactMissing means an optional model artifact could not be loaded.
	ErrArtifactMissing = errors.New("model artifact missing")

	// ErrPredictionFault is raised inside the trained path and always
	// converted into a fallback result by Predictor.Predict.
	ErrPredictionFault = errors.New("prediction fault")
)
