package classifier

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
)

type mockClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockClassifier picks a random label with a confidence between 0.70 and
// 0.99. It stands in for the model when none is deployed.
func NewMockClassifier(rng *rand.Rand) Classifier {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &mockClassifier{rng: rng}
}

func (m *mockClassifier) Name() string { return "mock" }

func (m *mockClassifier) Classify(ctx context.Context, _ []byte, _ string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, failed(m.Name(), err)
	}

	m.mu.Lock()
	label := Labels[m.rng.IntN(len(Labels))]
	confidence := 0.7 + m.rng.Float64()*0.29
	m.mu.Unlock()

	return Prediction{
		Label:      label,
		Confidence: math.Round(confidence*100) / 100,
	}, nil
}
