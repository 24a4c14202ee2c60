package classifier

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXScorer runs a pretrained binary classifier exported to ONNX (a
// gradient-boosted model in the shipped artifact, but any model with the
// same tensor contract works). Loaded once at process start and reused
// across requests; Run calls are serialized internally so concurrent
// requests can share one session.
type ONNXScorer struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	featureDim int64
	outCols    int64

	mu sync.Mutex
}

// NewONNX loads the model at modelPath and creates an inference session.
// libPath locates the ONNX Runtime shared library; when empty it is resolved
// to libonnxruntime.so next to the model file.
func NewONNX(modelPath, libPath string) (*ONNXScorer, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	// Inspect the model to discover tensor names and shapes.
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected a single input tensor, got %d", len(inputs))
	}
	inDims := inputs[0].Dimensions
	if len(inDims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D [batch, features] input, got %v", inDims)
	}

	outputName, outCols, err := probabilityOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXScorer{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputName,
		featureDim: inDims[1],
		outCols:    outCols,
	}, nil
}

// probabilityOutput selects the model output carrying class probabilities
// and the number of columns it holds per row. Converters commonly emit a
// "probabilities" tensor of shape [batch, 2] next to a "label" tensor; a
// plain sigmoid head emits [batch, 1] or [batch].
func probabilityOutput(outputs []ort.InputOutputInfo) (string, int64, error) {
	if len(outputs) == 0 {
		return "", 0, fmt.Errorf("onnx: model has no outputs")
	}
	chosen := outputs[len(outputs)-1]
	for _, out := range outputs {
		if out.Name == "probabilities" {
			chosen = out
			break
		}
	}

	dims := chosen.Dimensions
	var cols int64
	switch {
	case len(dims) == 1:
		cols = 1
	case len(dims) == 2 && dims[1] > 0:
		cols = dims[1]
	case len(dims) == 2 && chosen.Name == "probabilities":
		// Dynamic class axis: binary probabilities come as [P(neg), P(pos)].
		cols = 2
	case len(dims) == 2:
		cols = 1
	default:
		return "", 0, fmt.Errorf("onnx: unsupported output shape %v for %q", dims, chosen.Name)
	}
	if cols != 1 && cols != 2 {
		return "", 0, fmt.Errorf("onnx: expected 1 or 2 probability columns, got %d", cols)
	}
	return chosen.Name, cols, nil
}

// ScoreBatch runs one vectorized inference call over the whole matrix.
func (s *ONNXScorer) ScoreBatch(matrix [][]float32) ([]float64, error) {
	if len(matrix) == 0 {
		return nil, nil
	}

	dim := s.featureDim
	if dim <= 0 {
		// Dynamic feature axis; trust the builder's vector width.
		dim = int64(len(matrix[0]))
	}

	flat := make([]float32, 0, int64(len(matrix))*dim)
	for i, vec := range matrix {
		if int64(len(vec)) != dim {
			return nil, fmt.Errorf("onnx: row %d has %d features, model expects %d", i, len(vec), dim)
		}
		flat = append(flat, vec...)
	}

	batch := int64(len(matrix))
	tIn, err := ort.NewTensor(ort.NewShape(batch, dim), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(batch, s.outCols))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	s.mu.Lock()
	err = s.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	data := tOut.GetData()
	probs := make([]float64, batch)
	for i := int64(0); i < batch; i++ {
		var p float32
		if s.outCols == 2 {
			p = data[i*2+1]
		} else {
			p = data[i]
		}
		probs[i] = clamp01(float64(p))
	}
	return probs, nil
}

// Close releases the ONNX session resources.
func (s *ONNXScorer) Close() error {
	return s.session.Destroy()
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
