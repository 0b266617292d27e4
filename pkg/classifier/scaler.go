package classifier

import (
	"fmt"
	"math"
)

// StandardScaler centres each column on its mean and scales it to unit
// population variance.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// FitStandardScaler learns per-column statistics from the samples.
func FitStandardScaler(samples [][]float64) (*StandardScaler, error) {
	width, err := sampleWidth(samples)
	if err != nil {
		return nil, err
	}
	n := float64(len(samples))
	mean := make([]float64, width)
	for _, row := range samples {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	scale := make([]float64, width)
	for _, row := range samples {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		// constant columns pass through unscaled
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return &StandardScaler{mean: mean, scale: scale}, nil
}

// Width returns the number of columns the scaler was fit on.
func (s *StandardScaler) Width() int {
	return len(s.mean)
}

// Transform returns a scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.mean[j]) / s.scale[j]
	}
	return out, nil
}

func sampleWidth(samples [][]float64) (int, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("no samples to fit")
	}
	width := len(samples[0])
	if width == 0 {
		return 0, fmt.Errorf("samples have no features")
	}
	for i, row := range samples {
		if len(row) != width {
			return 0, fmt.Errorf("sample %d has %d features, expected %d", i, len(row), width)
		}
	}
	return width, nil
}
