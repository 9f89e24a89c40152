// Package classifier turns an uploaded recording into a stress prediction:
// decode and crop the audio, average its MFCCs, and run the frozen model.
package classifier

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/errors"
	"github.com/tphakala/stressnet-go/internal/logger"
	"github.com/tphakala/stressnet-go/internal/mfcc"
	"github.com/tphakala/stressnet-go/internal/myaudio"
	"github.com/tphakala/stressnet-go/internal/observability/metrics"
)

// Prediction is the outcome of one classification.
type Prediction struct {
	Class         StressClass
	Index         int
	Probabilities []float32     // raw model output, one value per class
	Features      []float32     // averaged MFCC vector fed to the model
	Duration      time.Duration // wall time of the whole pipeline
}

// Confidence returns the model output for the predicted class.
func (p *Prediction) Confidence() float32 {
	if p.Index < 0 || p.Index >= len(p.Probabilities) {
		return 0
	}
	return p.Probabilities[p.Index]
}

// Classifier owns the loaded model and the feature pipeline. Decoding and
// feature extraction run concurrently; model invocations are serialized.
type Classifier struct {
	model     Model
	backend   string
	modelPath string
	extractor *mfcc.Extractor
	loadOpts  myaudio.LoadOptions
	metrics   *metrics.ClassifierMetrics

	mu sync.Mutex // guards model invocation
}

// New loads the model configured in settings and returns a ready classifier.
func New(settings *conf.Settings) (*Classifier, error) {
	model, err := LoadModel(&settings.Model)
	if err != nil {
		return nil, err
	}
	c, err := NewWithModel(model, settings)
	if err != nil {
		if closeErr := model.Close(); closeErr != nil {
			GetLogger().Warn("failed to release model after init error", logger.Error(closeErr))
		}
		return nil, err
	}
	c.modelPath = settings.Model.Path
	return c, nil
}

// NewWithModel wraps an already loaded model. The model input must hold
// exactly Features.NMFCC values per sample and its output NumClasses values.
func NewWithModel(model Model, settings *conf.Settings) (*Classifier, error) {
	cfg := mfcc.DefaultConfig()
	cfg.SampleRate = settings.Features.SampleRate
	cfg.NMFCC = settings.Features.NMFCC

	extractor, err := mfcc.New(cfg)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryConfiguration).
			Build()
	}

	backend := "custom"
	if bn, ok := model.(backendNamer); ok {
		backend = bn.Backend()
	}

	c := &Classifier{
		model:     model,
		backend:   backend,
		extractor: extractor,
		loadOpts: myaudio.LoadOptions{
			Offset:     settings.Features.OffsetDuration(),
			Duration:   settings.Features.ClipDuration(),
			SampleRate: settings.Features.SampleRate,
			Formats:    settings.Audio.Formats,
		},
	}

	if err := c.validateModel(); err != nil {
		return nil, err
	}

	GetLogger().Info("classifier ready",
		logger.String("backend", backend),
		logger.Any("input_shape", model.InputShape()),
		logger.Int("n_mfcc", cfg.NMFCC),
		logger.Int("sample_rate", cfg.SampleRate))

	return c, nil
}

// validateModel checks the input shape and probes the output size with a
// zero input.
func (c *Classifier) validateModel() error {
	shape := c.model.InputShape()
	want := c.extractor.Config().NMFCC
	if got := elementCount(shape); got != want {
		return errors.Newf("model expects %d input values per sample (shape %v), features have %d", got, shape, want).
			Component("classifier").
			Category(errors.CategoryShapeMismatch).
			Context("input_shape", fmt.Sprint(shape)).
			Build()
	}

	out, err := c.model.Infer(make([]float32, want))
	if err != nil {
		return errors.New(fmt.Errorf("model warm-up failed: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelInit).
			Build()
	}
	if len(out) != NumClasses {
		return errors.Newf("model produces %d outputs, expected %d", len(out), NumClasses).
			Component("classifier").
			Category(errors.CategoryShapeMismatch).
			Build()
	}
	return nil
}

// SetMetrics enables Prometheus recording. A nil value disables it.
func (c *Classifier) SetMetrics(m *metrics.ClassifierMetrics) {
	c.metrics = m
	if m != nil {
		m.SetModelLoaded(c.backend, true)
	}
}

// Backend returns the inference backend name.
func (c *Classifier) Backend() string { return c.backend }

// ModelPath returns the model file path, empty for injected models.
func (c *Classifier) ModelPath() string { return c.modelPath }

// NMFCC returns the feature vector length.
func (c *Classifier) NMFCC() int { return c.extractor.Config().NMFCC }

// Formats returns the accepted upload formats, empty meaning every decoder.
func (c *Classifier) Formats() []string { return c.loadOpts.Formats }

// Features decodes audio and returns its averaged MFCC vector.
func (c *Classifier) Features(ctx context.Context, audio []byte, format string) ([]float32, error) {
	if err := checkContext(ctx, "decode"); err != nil {
		return nil, err
	}

	start := time.Now()
	samples, _, err := myaudio.Load(audio, format, c.loadOpts)
	if err != nil {
		return nil, err
	}
	c.observeStage(metrics.StageDecode, time.Since(start))

	if err := checkContext(ctx, "features"); err != nil {
		return nil, err
	}

	start = time.Now()
	features, err := c.extractor.Mean(samples)
	if err != nil {
		return nil, errors.New(err).
			Component("mfcc").
			Category(errors.CategoryFeature).
			AudioContext(format, len(audio)).
			Build()
	}
	c.observeStage(metrics.StageFeatures, time.Since(start))

	return features, nil
}

// Classify runs the full pipeline on an uploaded recording.
func (c *Classifier) Classify(ctx context.Context, audio []byte, format string) (*Prediction, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.IncActive()
		defer c.metrics.DecActive()
	}

	features, err := c.Features(ctx, audio, format)
	if err != nil {
		c.recordError(err)
		return nil, err
	}

	if err := checkContext(ctx, "inference"); err != nil {
		c.recordError(err)
		return nil, err
	}

	p, err := c.predict(features)
	if err != nil {
		c.recordError(err)
		return nil, err
	}
	p.Duration = time.Since(start)
	c.recordPrediction(p)

	GetLogger().WithContext(ctx).Debug("audio classified",
		logger.String("format", format),
		logger.Int("size", len(audio)),
		logger.String("class", p.Class.Slug()),
		logger.Float32("confidence", p.Confidence()),
		logger.Duration("duration", p.Duration))

	return p, nil
}

// Predict runs the model on a feature vector of length NMFCC.
func (c *Classifier) Predict(features []float32) (*Prediction, error) {
	start := time.Now()
	p, err := c.predict(features)
	if err != nil {
		c.recordError(err)
		return nil, err
	}
	p.Duration = time.Since(start)
	c.recordPrediction(p)
	return p, nil
}

func (c *Classifier) predict(features []float32) (*Prediction, error) {
	want := c.extractor.Config().NMFCC
	if len(features) != want {
		return nil, errors.Newf("feature vector has %d values, model expects %d", len(features), want).
			Component("classifier").
			Category(errors.CategoryShapeMismatch).
			Build()
	}

	// (1, n_mfcc, 1) is laid out identically to the flat vector
	input := append([]float32(nil), features...)

	start := time.Now()
	out, err := c.infer(input)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryInference).
			ModelContext(c.modelPath, c.backend).
			Timing("model-invoke", time.Since(start)).
			Build()
	}
	c.observeStage(metrics.StageInference, time.Since(start))

	if len(out) != NumClasses {
		return nil, errors.Newf("model returned %d outputs, expected %d", len(out), NumClasses).
			Component("classifier").
			Category(errors.CategoryInference).
			ModelContext(c.modelPath, c.backend).
			Build()
	}

	index := Argmax(out)
	class, err := ClassFromIndex(index)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryInference).
			Build()
	}

	return &Prediction{
		Class:         class,
		Index:         index,
		Probabilities: out,
		Features:      append([]float32(nil), features...),
	}, nil
}

// errModelClosed is returned when predicting after Close.
var errModelClosed = errors.NewStd("model is closed")

func (c *Classifier) infer(input []float32) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return nil, errModelClosed
	}
	return c.model.Infer(input)
}

// Close releases the model.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return nil
	}
	err := c.model.Close()
	c.model = nil
	if c.metrics != nil {
		c.metrics.SetModelLoaded(c.backend, false)
	}
	return err
}

// Argmax returns the index of the largest value. Ties resolve to the lowest
// index and NaN never wins.
func Argmax(values []float32) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] || (isNaN(values[best]) && !isNaN(values[i])) {
			best = i
		}
	}
	return best
}

func isNaN(v float32) bool {
	return math.IsNaN(float64(v))
}

// ErrorKind returns the failure kind used for metrics and API responses.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if cat := errors.CategoryOf(err); cat != "" {
		return string(cat)
	}
	return string(errors.CategoryGeneric)
}

func checkContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.New(err).
			Component("classifier").
			Category(errors.CategoryCancellation).
			Context("stage", stage).
			Priority(errors.PriorityLow).
			Build()
	}
	return nil
}

func (c *Classifier) observeStage(stage string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveStage(stage, d)
	}
}

func (c *Classifier) recordError(err error) {
	kind := ErrorKind(err)
	GetLogger().Warn("prediction failed", logger.String("kind", kind), logger.Error(err))
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
}

func (c *Classifier) recordPrediction(p *Prediction) {
	if c.metrics != nil {
		c.metrics.RecordPrediction(p.Class.Slug())
	}
}
