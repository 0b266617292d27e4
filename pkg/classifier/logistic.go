package classifier

import (
	"fmt"
	"math"
)

// TrainingOptions tunes gradient descent for LogisticRegression.
type TrainingOptions struct {
	Iterations   int
	LearningRate float64
	L2           float64
}

// DefaultTrainingOptions are used by NewDefault.
var DefaultTrainingOptions = TrainingOptions{Iterations: 2000, LearningRate: 0.5, L2: 0.01}

// LogisticRegression is a binary classifier over already-scaled features.
type LogisticRegression struct {
	weights []float64
	bias    float64
}

// FitLogisticRegression minimises mean log-loss plus an L2 penalty with
// full-batch gradient descent. Labels must be 0 or 1.
func FitLogisticRegression(samples [][]float64, labels []int, opts TrainingOptions) (*LogisticRegression, error) {
	width, err := sampleWidth(samples)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(samples) {
		return nil, fmt.Errorf("got %d labels for %d samples", len(labels), len(samples))
	}
	for i, y := range labels {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("label %d is %d, expected 0 or 1", i, y)
		}
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultTrainingOptions.Iterations
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainingOptions.LearningRate
	}

	m := &LogisticRegression{weights: make([]float64, width)}
	n := float64(len(samples))
	gradW := make([]float64, width)
	for iter := 0; iter < opts.Iterations; iter++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0
		for i, x := range samples {
			residual := m.prob(x) - float64(labels[i])
			for j, v := range x {
				gradW[j] += residual * v
			}
			gradB += residual
		}
		for j := range m.weights {
			m.weights[j] -= opts.LearningRate * (gradW[j]/n + opts.L2*m.weights[j])
		}
		m.bias -= opts.LearningRate * gradB / n
	}
	return m, nil
}

// Weights returns a copy of the learned coefficients.
func (m *LogisticRegression) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// Probability returns P(class 1 | x).
func (m *LogisticRegression) Probability(x []float64) (float64, error) {
	if len(x) != len(m.weights) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(m.weights), len(x))
	}
	return m.prob(x), nil
}

func (m *LogisticRegression) prob(x []float64) float64 {
	z := m.bias
	for j, v := range x {
		z += m.weights[j] * v
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
