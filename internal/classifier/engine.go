package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	ort "github.com/yalue/onnxruntime_go"
)

// Dim is one dimension of a model's declared tensor signature. Symbolic
// dimensions (e.g. a variable batch size) have no fixed value and match any
// actual size during validation.
type Dim struct {
	Value    int64
	Symbolic bool
}

func dimsFromShape(shape ort.Shape) []Dim {
	dims := make([]Dim, len(shape))
	for i, v := range shape {
		if v < 0 {
			dims[i] = Dim{Symbolic: true}
		} else {
			dims[i] = Dim{Value: v}
		}
	}
	return dims
}

// validateShape checks a tensor shape against a declared signature: ranks
// must match and every non-symbolic dimension must match exactly.
func validateShape(expected []Dim, actual []int64) error {
	if len(actual) != len(expected) {
		return &ShapeMismatchError{
			Index:        -1,
			ExpectedRank: len(expected),
			ActualRank:   len(actual),
		}
	}
	for i, dim := range expected {
		if dim.Symbolic {
			continue
		}
		if actual[i] != dim.Value {
			return &ShapeMismatchError{
				Index:    i,
				Expected: dim.Value,
				Actual:   actual[i],
			}
		}
	}
	return nil
}

var ortEnv struct {
	mu   sync.Mutex
	lib  string
	once sync.Once
	err  error
}

// SetRuntimeLibrary overrides the ONNX Runtime shared library location. It
// must be called before the first session is created.
func SetRuntimeLibrary(path string) {
	ortEnv.mu.Lock()
	defer ortEnv.mu.Unlock()
	ortEnv.lib = path
}

func initRuntime() error {
	ortEnv.once.Do(func() {
		ortEnv.mu.Lock()
		if ortEnv.lib != "" {
			ort.SetSharedLibraryPath(ortEnv.lib)
		}
		ortEnv.mu.Unlock()
		if err := ort.InitializeEnvironment(); err != nil {
			ortEnv.err = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return ortEnv.err
}

// Session wraps a loaded ONNX model. A Session is safe for concurrent use:
// the underlying runtime allows concurrent Run calls and every Infer uses its
// own input and output tensors.
type Session struct {
	session     *ort.DynamicAdvancedSession
	inputName   string
	outputName  string
	inputDims   []Dim
	outputShape []int64
}

func newSession(modelPath string) (*Session, error) {
	if err := initRuntime(); err != nil {
		return nil, &InferenceError{Err: err}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("failed to read model signature: %w", err)}
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, &InferenceError{
			Err: fmt.Errorf("model must have exactly one input and one output, got %d and %d",
				len(inputs), len(outputs)),
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("failed to create ONNX session: %w", err)}
	}

	// Symbolic output dimensions (typically the batch) become 1: the
	// pipeline always runs single-image batches.
	outputShape := make([]int64, len(outputs[0].Dimensions))
	for i, v := range outputs[0].Dimensions {
		if v < 0 {
			v = 1
		}
		outputShape[i] = v
	}

	return &Session{
		session:     session,
		inputName:   inputs[0].Name,
		outputName:  outputs[0].Name,
		inputDims:   dimsFromShape(inputs[0].Dimensions),
		outputShape: outputShape,
	}, nil
}

// Infer validates the tensor against the model's declared input shape, runs
// a forward pass and returns the output vector with the batch dimension
// removed.
func (s *Session) Infer(t *Tensor) ([]float32, error) {
	if err := validateShape(s.inputDims, t.Shape); err != nil {
		return nil, err
	}

	input, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("failed to create input tensor: %w", err)}
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(s.outputShape...))
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("failed to create output tensor: %w", err)}
	}
	defer output.Destroy()

	if err := s.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, &InferenceError{Err: err}
	}

	// Copy out before the tensor is destroyed; the data slice implicitly
	// squeezes the leading batch dimension of 1.
	scores := make([]float32, len(output.GetData()))
	copy(scores, output.GetData())
	return scores, nil
}

func (s *Session) close() {
	if s.session != nil {
		s.session.Destroy()
	}
}

// Inferencer runs a forward pass against a validated input tensor.
type Inferencer interface {
	Infer(t *Tensor) ([]float32, error)
}

// Engine owns loaded model sessions, cached per model path. Sessions are
// expensive to construct; an Engine loads each model once and shares the
// session across requests.
type Engine struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Session]
}

// NewEngine creates an engine holding at most maxSessions concurrently
// loaded models. Evicted sessions release their native resources.
func NewEngine(maxSessions int) (*Engine, error) {
	cache, err := lru.NewWithEvict(maxSessions, func(_ string, s *Session) {
		s.close()
	})
	if err != nil {
		return nil, err
	}
	return &Engine{cache: cache}, nil
}

// Session returns the loaded session for modelPath, loading it on first use.
// A missing model file fails with ModelNotFoundError before any runtime
// initialization is attempted.
func (e *Engine) Session(modelPath string) (Inferencer, error) {
	abs, err := filepath.Abs(modelPath)
	if err != nil {
		abs = modelPath
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if session, ok := e.cache.Get(abs); ok {
		return session, nil
	}

	if _, err := os.Stat(abs); err != nil {
		return nil, &ModelNotFoundError{Path: modelPath, Err: err}
	}

	session, err := newSession(abs)
	if err != nil {
		return nil, err
	}
	e.cache.Add(abs, session)
	return session, nil
}

// Loaded reports whether a session for modelPath is currently cached.
func (e *Engine) Loaded(modelPath string) bool {
	abs, err := filepath.Abs(modelPath)
	if err != nil {
		abs = modelPath
	}
	return e.cache.Contains(abs)
}

// Close destroys all cached sessions and tears down the ONNX environment.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Purge()
	if ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}
