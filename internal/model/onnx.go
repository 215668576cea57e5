package model

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxNetwork owns an ONNX Runtime session bound to a single pair of input
// and output tensors. Run calls share those tensors, so Forward is
// serialized.
type onnxNetwork struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	device       string
}

func initRuntime(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// releaseRuntime tears down an environment that no network ended up owning.
func releaseRuntime() {
	if !ort.IsInitialized() {
		return
	}
	if err := ort.DestroyEnvironment(); err != nil {
		log.Warn().Err(err).Msg("Failed to destroy ONNX environment")
	}
}

func newONNXNetwork(graph []byte, numClasses int, device string) (*onnxNetwork, error) {
	inputs, outputs, err := ort.GetInputOutputInfoWithONNXData(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect ONNX graph: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: graph has %d inputs and %d outputs, expected 1 and at least 1",
			ErrShapeMismatch, len(inputs), len(outputs))
	}

	inputShape := pinBatch(inputs[0].Dimensions)
	if err := checkInputShape(inputShape); err != nil {
		return nil, err
	}
	outputShape := pinBatch(outputs[0].Dimensions)
	if outputShape.FlattenedSize() != int64(numClasses) {
		return nil, fmt.Errorf("%w: output shape %v, expected %d classes", ErrShapeMismatch, outputShape, numClasses)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, selected, err := newSessionOptions(device)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSessionWithONNXData(graph,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxNetwork{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		device:       selected,
	}, nil
}

// newSessionOptions appends the CUDA execution provider unless device is
// "cpu". In "auto" mode a CUDA failure falls back to the CPU provider.
func newSessionOptions(device string) (*ort.SessionOptions, string, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session options: %w", err)
	}
	if device == "cpu" {
		return options, "cpu", nil
	}

	if err := appendCUDA(options); err != nil {
		if device == "cuda" {
			options.Destroy()
			return nil, "", fmt.Errorf("%w: cuda: %v", ErrDeviceUnavailable, err)
		}
		log.Warn().Err(err).Msg("CUDA execution provider unavailable, using CPU")
		return options, "cpu", nil
	}
	return options, "cuda", nil
}

func appendCUDA(options *ort.SessionOptions) error {
	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()
	return options.AppendExecutionProviderCUDA(cudaOptions)
}

func pinBatch(dims ort.Shape) ort.Shape {
	shape := dims.Clone()
	for i, d := range shape {
		if d <= 0 {
			shape[i] = 1
		}
	}
	return shape
}

func (n *onnxNetwork) Forward(input []float32) ([]float32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	data := n.inputTensor.GetData()
	if len(input) != len(data) {
		return nil, fmt.Errorf("expected %d input values, got %d", len(data), len(input))
	}
	copy(data, input)

	if err := n.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return append([]float32(nil), n.outputTensor.GetData()...), nil
}

func (n *onnxNetwork) Device() string {
	return n.device
}

func (n *onnxNetwork) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.inputTensor != nil {
		n.inputTensor.Destroy()
	}
	if n.outputTensor != nil {
		n.outputTensor.Destroy()
	}
	if n.session != nil {
		n.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
