package classifier

import (
	"image/color"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	scores     []float32
	err        error
	lastShape  []int64
	inferCalls atomic.Int64
}

func (f *fakeSession) Infer(t *Tensor) ([]float32, error) {
	f.inferCalls.Add(1)
	f.lastShape = t.Shape
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

type fakeSource struct {
	session Inferencer
	err     error
	calls   atomic.Int64
}

func (f *fakeSource) Session(string) (Inferencer, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func TestClassifyEndToEnd(t *testing.T) {
	session := &fakeSession{scores: []float32{0.05, 0.92, 0.01, 0.01, 0.005, 0.003, 0.002}}
	pipeline := NewPipeline(&fakeSource{session: session}, Config{ModelPath: "model.onnx"})

	raw := encodePNG(t, gradientImage(512, 384))
	result, err := pipeline.Classify(raw)
	require.NoError(t, err)

	assert.Equal(t, Fungi, result.PredictedClass)
	assert.False(t, result.IsPreprocessed)
	assert.Equal(t, "512x384", result.ImageSize)
	assert.Equal(t, []int64{1, 224, 224, 3}, session.lastShape)
	assert.Greater(t, result.ProcessingTime, 0.0)

	require.Len(t, result.AllPredictions, ClassCount)
	sum := 0.0
	for _, v := range result.AllPredictions {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 0.01)

	assert.Equal(t, RecommendationsFor(Fungi), result.Recommendations)
	require.Len(t, result.Recommendations, 5)
}

func TestClassifyTargetSizeImageIsPreprocessed(t *testing.T) {
	session := &fakeSession{scores: []float32{0, 0, 0, 0, 0, 0, 1}}
	pipeline := NewPipeline(&fakeSource{session: session}, Config{ModelPath: "model.onnx"})

	raw := encodePNG(t, gradientImage(224, 224))
	result, err := pipeline.Classify(raw)
	require.NoError(t, err)

	assert.True(t, result.IsPreprocessed)
	assert.Equal(t, "224x224", result.ImageSize)
}

func TestClassifyMissingModelFailsBeforeInference(t *testing.T) {
	session := &fakeSession{scores: []float32{0, 0, 0, 0, 0, 0, 1}}
	source := &fakeSource{session: session, err: &ModelNotFoundError{Path: "gone.onnx"}}
	pipeline := NewPipeline(source, Config{ModelPath: "gone.onnx"})

	raw := encodePNG(t, gradientImage(64, 64))
	_, err := pipeline.Classify(raw)

	var notFoundErr *ModelNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, int64(0), session.inferCalls.Load())
}

func TestClassifyCorruptImageSkipsSession(t *testing.T) {
	source := &fakeSource{session: &fakeSession{}}
	pipeline := NewPipeline(source, Config{ModelPath: "model.onnx"})

	_, err := pipeline.Classify([]byte("not an image"))

	var preprocessErr *PreprocessError
	require.ErrorAs(t, err, &preprocessErr)
	assert.Equal(t, int64(0), source.calls.Load())
}

func TestClassifyPropagatesInferenceError(t *testing.T) {
	session := &fakeSession{err: &InferenceError{Err: assert.AnError}}
	pipeline := NewPipeline(&fakeSource{session: session}, Config{ModelPath: "model.onnx"})

	_, err := pipeline.Classify(encodePNG(t, gradientImage(64, 64)))

	var inferenceErr *InferenceError
	assert.ErrorAs(t, err, &inferenceErr)
}

// pixelKeyedSession derives its output from the first pixel so concurrent
// callers can verify they got their own result back.
type pixelKeyedSession struct{}

func (pixelKeyedSession) Infer(t *Tensor) ([]float32, error) {
	idx := int(math.Round(float64(t.Data[0])*255)) % ClassCount
	scores := make([]float32, ClassCount)
	for i := range scores {
		scores[i] = 0.01
	}
	scores[idx] = 0.9
	return scores, nil
}

func TestClassifyConcurrent(t *testing.T) {
	pipeline := NewPipeline(&fakeSource{session: pixelKeyedSession{}}, Config{ModelPath: "model.onnx"})

	black := encodePNG(t, solidImage(300, 300, color.RGBA{0, 0, 0, 255}))
	white := encodePNG(t, solidImage(400, 400, color.RGBA{255, 255, 255, 255}))

	// First pixel 0.0 keys class 0, first pixel 1.0 keys 255 % 7 == 3.
	wantBlack := Labels[0]
	wantWhite := Labels[3]

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		raw, want, wantSize := black, wantBlack, "300x300"
		if i%2 == 1 {
			raw, want, wantSize = white, wantWhite, "400x400"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := pipeline.Classify(raw)
			if err != nil {
				errs <- err
				return
			}
			assert.Equal(t, want, result.PredictedClass)
			assert.Equal(t, wantSize, result.ImageSize)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent classify failed: %v", err)
	}
}
