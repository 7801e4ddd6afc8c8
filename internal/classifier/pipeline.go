// Package classifier implements the potato disease classification pipeline:
// image normalization, ONNX model inference and result formatting.
package classifier

import "time"

// Config carries the per-deployment pipeline settings.
type Config struct {
	// TargetSize is the square input resolution the model expects.
	// Zero means DefaultTargetSize.
	TargetSize int
	// ModelPath locates the ONNX model file.
	ModelPath string
}

// SessionSource provides loaded inference sessions by model path.
type SessionSource interface {
	Session(modelPath string) (Inferencer, error)
}

// Pipeline runs the full classification sequence for one image. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	sessions SessionSource
	cfg      Config
}

// NewPipeline builds a pipeline over a session source, typically an *Engine.
func NewPipeline(sessions SessionSource, cfg Config) *Pipeline {
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = DefaultTargetSize
	}
	return &Pipeline{sessions: sessions, cfg: cfg}
}

// Classify runs preprocessing, inference and formatting for one raw image.
// ProcessingTime covers the whole call, from entry to the assembled result.
// Errors from each stage (PreprocessError, ModelNotFoundError,
// ShapeMismatchError, InferenceError) propagate unchanged; none of them is
// retried here.
func (p *Pipeline) Classify(raw []byte) (*Result, error) {
	start := time.Now()

	preprocessed := IsPreprocessed(raw, p.cfg.TargetSize)

	tensor, originalSize, _, err := Normalize(raw, p.cfg.TargetSize)
	if err != nil {
		return nil, err
	}

	session, err := p.sessions.Session(p.cfg.ModelPath)
	if err != nil {
		return nil, err
	}

	scores, err := session.Infer(tensor)
	if err != nil {
		return nil, err
	}

	result, err := Format(scores)
	if err != nil {
		return nil, err
	}

	result.IsPreprocessed = preprocessed
	result.ImageSize = originalSize
	result.ProcessingTime = time.Since(start).Seconds()
	return result, nil
}
