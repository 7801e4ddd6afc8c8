package classifier

import "fmt"

// PreprocessError reports an image that could not be decoded or resized.
// It is a client input fault.
type PreprocessError struct {
	Err error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("error preprocessing image: %v", e.Err)
}

func (e *PreprocessError) Unwrap() error { return e.Err }

// ModelNotFoundError reports a missing model file at the configured path.
type ModelNotFoundError struct {
	Path string
	Err  error
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model file not found at %s: %v", e.Path, e.Err)
}

func (e *ModelNotFoundError) Unwrap() error { return e.Err }

// ShapeMismatchError reports a tensor that does not match the model's declared
// input signature. Index is -1 for a rank mismatch, otherwise it names the
// offending dimension.
type ShapeMismatchError struct {
	Index        int
	Expected     int64
	Actual       int64
	ExpectedRank int
	ActualRank   int
}

func (e *ShapeMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("dimension mismatch: expected %dD tensor, got %dD", e.ExpectedRank, e.ActualRank)
	}
	return fmt.Sprintf("shape mismatch at dimension %d: expected %d, got %d", e.Index, e.Expected, e.Actual)
}

// InferenceError reports a model execution failure for a structurally valid
// input. It is a server-side fault.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("error during inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
