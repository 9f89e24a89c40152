package classifier

import (
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/errors"
	"github.com/tphakala/stressnet-go/internal/logger"
)

// The onnxruntime environment is process wide; it is initialized on first
// use and torn down when the last session closes.
var (
	ortMu       sync.Mutex
	ortSessions int
)

func acquireONNXEnvironment(library string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortSessions == 0 {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	ortSessions++
	return nil
}

func releaseONNXEnvironment() {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortSessions == 0 {
		return
	}
	ortSessions--
	if ortSessions == 0 {
		if err := ort.DestroyEnvironment(); err != nil {
			GetLogger().Warn("failed to destroy ONNX environment", logger.Error(err))
		}
	}
}

// onnxModel runs an ONNX graph with input and output tensors shaped as the
// graph declares them.
type onnxModel struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	shape        []int64
}

func newONNXModel(settings *conf.ModelSettings) (*onnxModel, error) {
	if err := acquireONNXEnvironment(settings.ONNXLibrary); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(settings.Path)
	if err != nil {
		releaseONNXEnvironment()
		return nil, fmt.Errorf("failed to read ONNX model signature: %w", err)
	}
	shape, err := tensorShape(inputs, settings.InputName)
	if err != nil {
		releaseONNXEnvironment()
		return nil, fmt.Errorf("input: %w", err)
	}
	outputShape, err := tensorShape(outputs, settings.OutputName)
	if err != nil {
		releaseONNXEnvironment()
		return nil, fmt.Errorf("output: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(shape...))
	if err != nil {
		releaseONNXEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outputShape...))
	if err != nil {
		_ = inputTensor.Destroy()
		releaseONNXEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		_ = inputTensor.Destroy()
		_ = outputTensor.Destroy()
		releaseONNXEnvironment()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	threads := determineThreadCount(settings.Threads)
	if err := options.SetIntraOpNumThreads(threads); err != nil {
		GetLogger().Warn("failed to set ONNX intra-op threads", logger.Int("threads", threads), logger.Error(err))
	}

	session, err := ort.NewAdvancedSession(settings.Path,
		[]string{settings.InputName}, []string{settings.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		_ = inputTensor.Destroy()
		_ = outputTensor.Destroy()
		releaseONNXEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	GetLogger().Info("ONNX model initialized",
		logger.String("path", settings.Path),
		logger.String("input", settings.InputName),
		logger.String("output", settings.OutputName),
		logger.Int("threads", threads),
		logger.Any("input_shape", shape),
		logger.Any("output_shape", outputShape))

	return &onnxModel{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		shape:        shape,
	}, nil
}

// tensorShape returns the declared dimensions of the named tensor. Dynamic
// dimensions (reported as -1) are fixed to 1, one sample per run.
func tensorShape(infos []ort.InputOutputInfo, name string) ([]int64, error) {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Name != name {
			names = append(names, info.Name)
			continue
		}
		if info.DataType != ort.TensorElementDataTypeFloat {
			return nil, fmt.Errorf("tensor %q has element type %v, expected float32", name, info.DataType)
		}
		shape := make([]int64, len(info.Dimensions))
		for i, d := range info.Dimensions {
			shape[i] = max(d, 1)
		}
		return shape, nil
	}
	return nil, fmt.Errorf("model has no tensor named %q (found %s)", name, strings.Join(names, ", "))
}

func (m *onnxModel) Backend() string { return conf.BackendONNX }

func (m *onnxModel) InputShape() []int64 {
	return append([]int64(nil), m.shape...)
}

func (m *onnxModel) Infer(input []float32) ([]float32, error) {
	dst := m.inputTensor.GetData()
	if len(dst) != len(input) {
		return nil, fmt.Errorf("input tensor holds %d values, got %d", len(dst), len(input))
	}
	copy(dst, input)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	src := m.outputTensor.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

func (m *onnxModel) Close() error {
	if m.session == nil {
		return nil
	}
	err := errors.Join(
		m.session.Destroy(),
		m.inputTensor.Destroy(),
		m.outputTensor.Destroy(),
	)
	m.session, m.inputTensor, m.outputTensor = nil, nil, nil
	releaseONNXEnvironment()
	return err
}
