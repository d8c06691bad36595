package ml

import (
	"fmt"
	"path/filepath"

	"mona-backend/internal/log"
)

// Artifact names an optional model artifact
type Artifact string

const (
	ArtifactRuleModel     Artifact = "rule_model"
	ArtifactMetaModel     Artifact = "meta_model"
	ArtifactScaler        Artifact = "scaler"
	ArtifactSequenceModel Artifact = "sequence_model"
)

// File names of the exported artifacts inside the model directory
var artifactFiles = map[Artifact]string{
	ArtifactRuleModel:     "m5rules_ga_model.json",
	ArtifactMetaModel:     "xgb_meta_model.json",
	ArtifactScaler:        "feature_scaler.json",
	ArtifactSequenceModel: "lstm_cnn_model.json",
}

// Artifacts returns every optional artifact in load order
func Artifacts() []Artifact {
	return []Artifact{ArtifactRuleModel, ArtifactMetaModel, ArtifactScaler, ArtifactSequenceModel}
}

// FileName returns the artifact's file name inside the model directory
func (a Artifact) FileName() string {
	return artifactFiles[a]
}

// ModelBundle holds whichever artifacts were loaded; nil means unavailable.
// Once handed to New the bundle belongs to the Predictor.
type ModelBundle struct {
	Rules    RuleEvaluator
	Meta     *MetaModel
	Scaler   *FeatureScaler
	Sequence *SequenceModel
}

// LoadReport records the outcome of Load
type LoadReport struct {
	ModelDir     string
	ModelVersion string
	ConfigErr    error // wraps ErrConfigMissing when set
	Errors       map[Artifact]error
}

// FallbackMode reports whether the thresholds config was unusable
func (r LoadReport) FallbackMode() bool {
	return r.ConfigErr != nil
}

// Load reads the thresholds config and every optional artifact from modelDir.
// It never fails: a missing config yields default thresholds and an empty
// bundle, and each artifact failure is recorded without stopping the others.
func Load(modelDir string) (ThresholdSet, *ModelBundle, LoadReport) {
	report := LoadReport{
		ModelDir: modelDir,
		Errors:   make(map[Artifact]error),
	}
	bundle := &ModelBundle{}

	log.Infof("ModelLoader: Loading trained models from %s", modelDir)

	thresholds, version, err := loadThresholds(filepath.Join(modelDir, ModelConfigFile))
	if err != nil {
		report.ConfigErr = err
		log.Errorw("ModelLoader: Configuration not loaded, using default thresholds in fallback mode",
			"error", err, "thresholds", DefaultThresholds())
		return DefaultThresholds(), bundle, report
	}
	report.ModelVersion = version
	log.Infow("ModelLoader: Configuration loaded", "version", version, "thresholds", thresholds)

	path := func(a Artifact) string { return filepath.Join(modelDir, a.FileName()) }

	if rules, err := LoadRuleModel(path(ArtifactRuleModel)); err != nil {
		report.record(ArtifactRuleModel, err)
	} else {
		bundle.Rules = rules
		log.Infof("ModelLoader: Rule model loaded: %d rules", rules.RuleCount())
	}

	if meta, err := LoadMetaModel(path(ArtifactMetaModel)); err != nil {
		report.record(ArtifactMetaModel, err)
	} else {
		bundle.Meta = meta
		log.Infof("ModelLoader: Meta model loaded: %d features", len(meta.FeatureNames))
	}

	if scaler, err := LoadFeatureScaler(path(ArtifactScaler)); err != nil {
		report.record(ArtifactScaler, err)
	} else {
		bundle.Scaler = scaler
		log.Infof("ModelLoader: Feature scaler loaded: %d features", len(scaler.FeatureNames))
	}

	if seq, err := LoadSequenceModel(path(ArtifactSequenceModel)); err != nil {
		report.record(ArtifactSequenceModel, err)
	} else {
		bundle.Sequence = seq
		log.Infof("ModelLoader: Sequence model loaded: window=%d", seq.Window)
	}

	log.Infow("ModelLoader: Model loading completed", "failed", len(report.Errors))
	return thresholds, bundle, report
}

func (r *LoadReport) record(a Artifact, err error) {
	r.Errors[a] = fmt.Errorf("%w: %s: %w", ErrArtifactMissing, a, err)
	log.Warnw("ModelLoader: Artifact not loaded, capability unavailable", "artifact", a, "error", err)
}

// ArtifactStatus describes one artifact for status surfaces
type ArtifactStatus struct {
	Name   Artifact `json:"name"`
	Loaded bool     `json:"loaded"`
	Detail string   `json:"detail,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func describeBundle(bundle ModelBundle, report LoadReport) []ArtifactStatus {
	statuses := make([]ArtifactStatus, 0, 4)
	for _, a := range Artifacts() {
		st := ArtifactStatus{Name: a}
		switch a {
		case ArtifactRuleModel:
			if bundle.Rules != nil {
				st.Loaded, st.Detail = true, fmt.Sprintf("%d rules", bundle.Rules.RuleCount())
			}
		case ArtifactMetaModel:
			if bundle.Meta != nil {
				st.Loaded, st.Detail = true, fmt.Sprintf("%d features", len(bundle.Meta.FeatureNames))
			}
		case ArtifactScaler:
			if bundle.Scaler != nil {
				st.Loaded, st.Detail = true, fmt.Sprintf("%d features", len(bundle.Scaler.FeatureNames))
			}
		case ArtifactSequenceModel:
			if bundle.Sequence != nil {
				st.Loaded, st.Detail = true, fmt.Sprintf("window %d", bundle.Sequence.Window)
			}
		}
		if err, ok := report.Errors[a]; ok {
			st.Error = err.Error()
		} else if !st.Loaded && report.ConfigErr != nil {
			st.Error = report.ConfigErr.Error()
		}
		statuses = append(statuses, st)
	}
	return statuses
}
