package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// DefaultTargetSize matches the input resolution the model was trained on.
const DefaultTargetSize = 224

// IsPreprocessed reports whether an image appears to already be in model-ready
// form: either its dimensions equal the target size, or its decoded pixel
// values already sit in [0, 1] (a sign of prior float normalization). This is
// a best-effort heuristic used only as response metadata; it never affects
// normalization and any decode failure counts as "not preprocessed".
func IsPreprocessed(raw []byte, target int) bool {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return false
	}

	bounds := img.Bounds()
	if bounds.Dx() == target && bounds.Dy() == target {
		return true
	}

	var max uint32
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			for _, c := range [3]uint32{r >> 8, g >> 8, b >> 8} {
				if c > max {
					max = c
				}
			}
		}
	}
	return max <= 1
}

// Normalize decodes an image, resizes it to target x target and converts it
// to a float32 tensor shaped [1, target, target, 3] with values in [0, 1].
// It returns the tensor, the pre-resize dimensions as "WxH" and the elapsed
// time for this step.
func Normalize(raw []byte, target int) (*Tensor, string, time.Duration, error) {
	start := time.Now()

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", 0, &PreprocessError{Err: err}
	}

	bounds := img.Bounds()
	originalSize := fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy())

	resized := resize.Resize(uint(target), uint(target), img, resize.Lanczos3)

	data := make([]float32, target*target*3)
	rb := resized.Bounds()
	i := 0
	for y := rb.Min.Y; y < rb.Max.Y; y++ {
		for x := rb.Min.X; x < rb.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			data[i] = float32(r>>8) / 255.0
			data[i+1] = float32(g>>8) / 255.0
			data[i+2] = float32(b>>8) / 255.0
			i += 3
		}
	}

	tensor := &Tensor{
		Data:  data,
		Shape: []int64{1, int64(target), int64(target), 3},
	}
	return tensor, originalSize, time.Since(start), nil
}
