package classifier

import "fmt"

// Format turns a raw score vector into a classification result. The predicted
// class is the argmax of the vector in canonical label order, with ties
// resolved to the lowest index. The orchestrating pipeline fills in the
// IsPreprocessed, ProcessingTime and ImageSize fields.
func Format(scores []float32) (*Result, error) {
	if len(scores) != ClassCount {
		return nil, &InferenceError{
			Err: fmt.Errorf("model returned %d scores for %d classes", len(scores), ClassCount),
		}
	}

	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}

	predictions := make(map[Label]float64, ClassCount)
	for i, label := range Labels {
		predictions[label] = float64(scores[i])
	}

	predicted := Labels[best]
	return &Result{
		PredictedClass:  predicted,
		Confidence:      float64(scores[best]),
		AllPredictions:  predictions,
		Recommendations: RecommendationsFor(predicted),
	}, nil
}
