package classifier

import (
	"context"
	"fmt"

	"leaflens/domain"
)

type (
	Prediction struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}

	// Classifier maps an image to a label of the fixed taxonomy. Failures are
	// reported as errors wrapping domain.ErrClassificationFailed.
	Classifier interface {
		Classify(ctx context.Context, image []byte, filename string) (Prediction, error)
		Name() string
	}
)

// CheckPrediction enforces the classifier contract on a backend response.
func CheckPrediction(p Prediction) (Prediction, error) {
	if !IsKnownLabel(p.Label) {
		return Prediction{}, fmt.Errorf("%w: unknown label %q", domain.ErrClassificationFailed, p.Label)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return Prediction{}, fmt.Errorf("%w: confidence %v out of range", domain.ErrClassificationFailed, p.Confidence)
	}
	return p, nil
}

func failed(backend string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrClassificationFailed, backend, err)
}
