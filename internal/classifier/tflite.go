package classifier

import (
	"fmt"
	"os"
	"runtime"

	"github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/cpuspec"
	"github.com/tphakala/stressnet-go/internal/logger"
)

// tfliteModel runs a TensorFlow Lite flatbuffer.
type tfliteModel struct {
	model       *tflite.Model
	interpreter *tflite.Interpreter
	shape       []int64
}

func newTFLiteModel(settings *conf.ModelSettings) (*tfliteModel, error) {
	modelData, err := os.ReadFile(settings.Path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model (%d bytes)", len(modelData))
	}

	threads := determineThreadCount(settings.Threads)
	options := tflite.NewInterpreterOptions()

	log := GetLogger()
	if settings.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count
		if delegate == nil {
			log.Warn("failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, user_data any) {
		GetLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("tensor allocation failed: %v", status)
	}

	input := interpreter.GetInputTensor(0)
	if input == nil {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("cannot get input tensor")
	}
	shape := make([]int64, input.NumDims())
	for i := range shape {
		shape[i] = int64(input.Dim(i))
	}

	log.Info("TFLite model initialized",
		logger.String("path", settings.Path),
		logger.Int("threads", threads),
		logger.Bool("xnnpack", settings.UseXNNPACK),
		logger.Any("input_shape", shape))

	return &tfliteModel{model: model, interpreter: interpreter, shape: shape}, nil
}

func (m *tfliteModel) Backend() string { return conf.BackendTFLite }

func (m *tfliteModel) InputShape() []int64 {
	return append([]int64(nil), m.shape...)
}

func (m *tfliteModel) Infer(input []float32) ([]float32, error) {
	inputTensor := m.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, fmt.Errorf("cannot get input tensor")
	}
	dst := inputTensor.Float32s()
	if len(dst) != len(input) {
		return nil, fmt.Errorf("input tensor holds %d values, got %d", len(dst), len(input))
	}
	copy(dst, input)

	if status := m.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputTensor := m.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return nil, fmt.Errorf("cannot get output tensor")
	}
	src := outputTensor.Float32s()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

func (m *tfliteModel) Close() error {
	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
	return nil
}

// determineThreadCount clamps the configured thread count to the CPU count.
// 0 lets cpuspec pick from the host topology.
func determineThreadCount(configured int) int {
	cpus := runtime.NumCPU()
	if configured <= 0 {
		return cpuspec.GetCPUSpec().GetOptimalThreadCount(cpus)
	}
	return min(configured, cpus)
}
