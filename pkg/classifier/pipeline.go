// Package classifier holds the small completion model scored by the predictor.
package classifier

import (
	"fmt"
	"math"
)

// Model scores a fixed-width feature vector, returning the probability of
// course completion. Implementations must be safe for concurrent use.
type Model interface {
	PredictProba(x []float64) (float64, error)
}

// Pipeline standardises features before handing them to the regression.
type Pipeline struct {
	scaler *StandardScaler
	model  *LogisticRegression
}

// Fit trains a scaler and regression over the samples.
func Fit(samples [][]float64, labels []int, opts TrainingOptions) (*Pipeline, error) {
	scaler, err := FitStandardScaler(samples)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled := make([][]float64, len(samples))
	for i, row := range samples {
		if scaled[i], err = scaler.Transform(row); err != nil {
			return nil, err
		}
	}
	model, err := FitLogisticRegression(scaled, labels, opts)
	if err != nil {
		return nil, fmt.Errorf("fit regression: %w", err)
	}
	return &Pipeline{scaler: scaler, model: model}, nil
}

// PredictProba implements Model.
func (p *Pipeline) PredictProba(x []float64) (float64, error) {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("input contains non-finite value at feature %d", i)
		}
	}
	scaled, err := p.scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return p.model.Probability(scaled)
}

// Example rows the default model is fit on: time_spent_min, score_percent,
// chapter_order.
var (
	exampleSamples = [][]float64{{45, 75, 1}, {15, 42, 1}, {60, 88, 2}, {25, 55, 1}}
	exampleLabels  = []int{1, 0, 1, 0}
)

// NewDefault fits the completion model on the built-in example rows.
func NewDefault() (*Pipeline, error) {
	return Fit(exampleSamples, exampleLabels, DefaultTrainingOptions)
}

// MustDefault is NewDefault for process start-up.
func MustDefault() *Pipeline {
	p, err := NewDefault()
	if err != nil {
		panic(err)
	}
	return p
}
