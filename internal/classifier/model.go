package classifier

import (
	"fmt"
	"os"
	"time"

	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/errors"
)

// Model is a loaded, frozen classifier. Implementations are not required to
// be safe for concurrent use; Classifier serializes calls to Infer.
type Model interface {
	// InputShape returns the input tensor shape including the batch dimension.
	InputShape() []int64
	// Infer runs the model on a flat input and returns the flat output.
	Infer(input []float32) ([]float32, error)
	// Close releases native resources.
	Close() error
}

// backendNamer is implemented by models that report their inference backend.
type backendNamer interface {
	Backend() string
}

// LoadModel opens the model at settings.Path with the backend implied by its
// file extension. nmfcc is used to size fixed-shape backends.
func LoadModel(settings *conf.ModelSettings) (Model, error) {
	start := time.Now()
	backend := settings.Backend()

	if _, err := os.Stat(settings.Path); err != nil {
		return nil, errors.New(fmt.Errorf("model file not accessible: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			ModelContext(settings.Path, backend).
			Priority(errors.PriorityCritical).
			Build()
	}

	var (
		m   Model
		err error
	)
	switch backend {
	case conf.BackendTFLite:
		m, err = newTFLiteModel(settings)
	case conf.BackendONNX:
		m, err = newONNXModel(settings)
	default:
		return nil, errors.Newf("unsupported model file %q, expected .tflite or .onnx", settings.Path).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			ModelContext(settings.Path, backend).
			Build()
	}
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelInit).
			ModelContext(settings.Path, backend).
			Timing("model-init", time.Since(start)).
			Priority(errors.PriorityCritical).
			Build()
	}
	return m, nil
}

// elementCount returns the number of elements per sample, ignoring the
// leading batch dimension.
func elementCount(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape[1:] {
		n *= d
	}
	return int(n)
}
