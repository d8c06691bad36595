package ml

import (
	"fmt"
	"math/rand/v2"

	"mona-backend/internal/log"
	"mona-backend/internal/models"
)

// Capabilities records which artifacts the predictor can use. It is fixed
// when the predictor is built.
type Capabilities struct {
	RuleModel     bool
	MetaModel     bool
	Scaler        bool
	SequenceModel bool
}

// Predictor turns sensor readings into FOS predictions. It is safe for
// concurrent use: thresholds and bundle are read-only, and the random source
// is locked.
type Predictor struct {
	thresholds ThresholdSet
	bundle     ModelBundle
	report     LoadReport
	caps       Capabilities
	src        rand.Source
	fallback   *FallbackPredictor
}

// Option configures a Predictor
type Option func(*Predictor)

// WithSource sets the random source used for FOS band draws
func WithSource(src rand.Source) Option {
	return func(p *Predictor) {
		p.src = src
	}
}

// WithSeed seeds the random source; 0 seeds from the clock
func WithSeed(seed int64) Option {
	return WithSource(NewSeededSource(seed))
}

// NewPredictor loads modelDir and builds a predictor. The predictor is always
// usable; when loading fails it answers from the fallback path.
func NewPredictor(modelDir string, opts ...Option) *Predictor {
	thresholds, bundle, report := Load(modelDir)
	return New(thresholds, bundle, report, opts...)
}

// New builds a predictor over an already loaded bundle. A config failure in
// report forces permanent fallback regardless of the bundle's contents.
func New(thresholds ThresholdSet, bundle *ModelBundle, report LoadReport, opts ...Option) *Predictor {
	p := &Predictor{
		thresholds: thresholds,
		report:     report,
	}
	if bundle != nil {
		p.bundle = *bundle
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.src == nil {
		p.src = NewSeededSource(0)
	}
	p.src = newLockedSource(p.src)
	p.fallback = NewFallbackPredictor(p.src)

	if !report.FallbackMode() {
		p.caps = Capabilities{
			RuleModel:     p.bundle.Rules != nil,
			MetaModel:     p.bundle.Meta != nil,
			Scaler:        p.bundle.Scaler != nil,
			SequenceModel: p.bundle.Sequence != nil,
		}
	} else {
		p.bundle = ModelBundle{}
	}

	if !p.caps.RuleModel {
		log.Warnw("Predictor: No rule model available, every prediction will use the fallback path",
			"config_error", report.ConfigErr)
	}
	return p
}

// Predict returns a prediction for reading. It never fails: any error or
// panic on the trained path produces a fallback result instead.
func (p *Predictor) Predict(reading models.SensorReading) (result models.PredictionResult) {
	if !p.caps.RuleModel {
		return p.fallback.Predict(reading)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Predictor: Trained prediction panicked, using fallback",
				"error", fmt.Errorf("%w: %v", ErrPredictionFault, r))
			result = p.fallback.Predict(reading)
		}
	}()

	res, err := p.predictTrained(reading)
	if err != nil {
		log.Warnw("Predictor: Trained prediction failed, using fallback", "error", err)
		return p.fallback.Predict(reading)
	}
	return res
}

func (p *Predictor) predictTrained(reading models.SensorReading) (models.PredictionResult, error) {
	stability, err := p.bundle.Rules.Evaluate(reading, p.thresholds)
	if err != nil {
		return models.PredictionResult{}, err
	}

	band, err := bandFor(stability.Score)
	if err != nil {
		return models.PredictionResult{}, err
	}

	fos := clamp(BaseFOS+drawUniform(p.src, band.Min, band.Max), MinFOS, MaxFOS)

	// The band's provisional class is superseded by the class of the drawn FOS.
	class := ClassifyFOS(fos)
	if class != band.Provisional {
		log.Debugw("Predictor: FOS draw landed outside the provisional class",
			"score", stability.Score, "provisional", band.Provisional, "final", class, "fos", fos)
	}

	score := stability.Score
	return models.PredictionResult{
		FOS:                  fos,
		SafetyClassification: class,
		AlertLevel:           class.Alert(),
		Confidence:           ConfidenceForScore(score),
		ModelUsed:            ModelRuleTrained,
		StabilityIndicators:  &score,
		ThresholdsMet:        stability.Met,
	}, nil
}

// LoadedArtifacts returns the names of the usable artifacts
func (p *Predictor) LoadedArtifacts() []string {
	var names []string
	if p.caps.RuleModel {
		names = append(names, string(ArtifactRuleModel))
	}
	if p.caps.MetaModel {
		names = append(names, string(ArtifactMetaModel))
	}
	if p.caps.Scaler {
		names = append(names, string(ArtifactScaler))
	}
	if p.caps.SequenceModel {
		names = append(names, string(ArtifactSequenceModel))
	}
	return names
}

func (p *Predictor) Capabilities() Capabilities {
	return p.caps
}

// FallbackMode reports whether predictions can only come from the fallback path
func (p *Predictor) FallbackMode() bool {
	return !p.caps.RuleModel
}

func (p *Predictor) Thresholds() ThresholdSet {
	return p.thresholds
}

func (p *Predictor) ModelVersion() string {
	return p.report.ModelVersion
}

// Describe reports the status of every artifact
func (p *Predictor) Describe() []ArtifactStatus {
	return describeBundle(p.bundle, p.report)
}
