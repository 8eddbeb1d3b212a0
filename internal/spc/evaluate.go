package spc

import (
	"errors"
	"math"
	"time"
)

var (
	ErrIncompleteBinding = errors.New("incomplete_binding")
	ErrUnordered         = errors.New("unordered_samples")
)

// Limits carries the operative control values of a plan-feature binding.
// A nil field means the binding has not been configured for it.
type Limits struct {
	Target *float64
	USL    *float64
	LSL    *float64
}

// Complete reports whether target, USL and LSL are all set.
func (l Limits) Complete() bool {
	return l.Target != nil && l.USL != nil && l.LSL != nil
}

// Sample is one measurement as seen by the evaluator.
type Sample struct {
	Value        float64
	SerialNumber string
	Operator     string
	Timestamp    time.Time
}

// Point is a classified sample.
type Point struct {
	Sample
	Status Status
}

// Statistics summarizes the full sequence. Nil pointers mark values that are
// not applicable for the sample size or variance.
type Statistics struct {
	Mean           *float64
	StdDev         *float64
	Cpk            *float64
	OutOfSpecCount int
	TotalCount     int
}

// Report is the result of evaluating one ordered sequence.
type Report struct {
	Target float64
	USL    float64
	LSL    float64
	Points []Point
	Stats  Statistics
}

type options struct {
	orderCheck bool
}

// Option tunes evaluation.
type Option func(*options)

// WithOrderCheck makes Evaluate fail with ErrUnordered when sample timestamps
// decrease, instead of evaluating the sequence as given.
func WithOrderCheck(enabled bool) Option {
	return func(o *options) {
		o.orderCheck = enabled
	}
}

// Evaluate classifies every sample and computes statistics over all of them.
// Samples must already be sorted by timestamp ascending.
func Evaluate(samples []Sample, limits Limits, opts ...Option) (*Report, error) {
	if !limits.Complete() {
		return nil, ErrIncompleteBinding
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.orderCheck && !isOrdered(samples) {
		return nil, ErrUnordered
	}

	target, usl, lsl := *limits.Target, *limits.USL, *limits.LSL

	points := make([]Point, 0, len(samples))
	values := make([]float64, 0, len(samples))
	outOfSpec := 0
	for _, sample := range samples {
		status := Classify(sample.Value, target, usl, lsl)
		if status == StatusOutOfSpec {
			outOfSpec++
		}
		points = append(points, Point{Sample: sample, Status: status})
		values = append(values, sample.Value)
	}

	stats := Statistics{
		OutOfSpecCount: outOfSpec,
		TotalCount:     len(values),
	}
	if mean, ok := Mean(values); ok {
		stats.Mean = &mean
	}
	if sd, ok := StdDev(values); ok {
		stats.StdDev = &sd
		if cpk, ok := Cpk(*stats.Mean, sd, usl, lsl); ok {
			stats.Cpk = &cpk
		}
	}

	return &Report{
		Target: target,
		USL:    usl,
		LSL:    lsl,
		Points: points,
		Stats:  stats,
	}, nil
}

// Mean returns the arithmetic mean, or false for an empty slice.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// StdDev returns the sample standard deviation (n-1 denominator), or false
// when fewer than two values are given.
func StdDev(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	if constant(values) {
		// mean of identical values can drift by an ulp; keep the spread exactly zero.
		return 0, true
	}
	mean, _ := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1)), true
}

// Cpk returns the process capability index, or false when stdDev is not positive.
func Cpk(mean, stdDev, usl, lsl float64) (float64, bool) {
	if !(stdDev > 0) {
		return 0, false
	}
	upper := (usl - mean) / (3 * stdDev)
	lower := (mean - lsl) / (3 * stdDev)
	return math.Min(upper, lower), true
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func isOrdered(samples []Sample) bool {
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			return false
		}
	}
	return true
}
