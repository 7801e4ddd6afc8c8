package classifier

// Tensor is a dense float32 tensor in NHWC layout.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// Result is the outcome of classifying a single image.
type Result struct {
	PredictedClass  Label             `json:"predicted_class"`
	Confidence      float64           `json:"confidence"`
	AllPredictions  map[Label]float64 `json:"all_predictions"`
	Recommendations []string          `json:"recommendations"`
	IsPreprocessed  bool              `json:"is_preprocessed"`
	ProcessingTime  float64           `json:"processing_time"`
	ImageSize       string            `json:"image_size"`
}
