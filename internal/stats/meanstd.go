package stats

import (
	"fmt"
	"math"
)

const defaultPrecision = 1

// MeanStd summarizes a set of samples. The zero value is not useful;
// use Collect or start from Empty so the empty-set sentinels are in place.
type MeanStd struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Empty returns the summary of zero samples: NaN mean/std, inverted min/max.
func Empty() MeanStd {
	return MeanStd{
		Mean: math.NaN(),
		Std:  math.NaN(),
		Min:  math.Inf(1),
		Max:  math.Inf(-1),
	}
}

// Collect computes the summary of the given samples (population std).
func Collect(samples []float64) MeanStd {
	m := Empty()
	if len(samples) == 0 {
		return m
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
		m.Min = math.Min(m.Min, s)
		m.Max = math.Max(m.Max, s)
	}
	m.Count = len(samples)
	m.Mean = sum / float64(m.Count)
	sq := 0.0
	for _, s := range samples {
		d := s - m.Mean
		sq += d * d
	}
	m.Std = math.Sqrt(sq / float64(m.Count))
	return m
}

func (m MeanStd) IsEmpty() bool {
	return m.Count == 0
}

// String renders "mean ± std" at one decimal, or "-" for the empty summary.
func (m MeanStd) String() string {
	if m.IsEmpty() {
		return "-"
	}
	return fmt.Sprintf("%.*f ± %.*f", defaultPrecision, m.Mean, defaultPrecision, m.Std)
}

// Range renders "min - max" at the given precision.
func (m MeanStd) Range(precision int) string {
	return fmt.Sprintf("%.*f - %.*f", precision, m.Min, precision, m.Max)
}
