// Package spc evaluates measurement sequences against control limits.
//
// Everything in this package is a pure function of its inputs. Callers are
// responsible for fetching samples in capture order; nothing here sorts.
package spc

import "math"

// Status is the classification of a single measured value.
type Status string

const (
	StatusInSpec    Status = "in_spec"
	StatusWarning   Status = "warning"
	StatusOutOfSpec Status = "out_of_spec"
)

// WarningRatio is the share of the target-to-USL spread beyond which an
// in-spec value is flagged as a warning. The upper spread is used on both
// sides of the target.
const WarningRatio = 0.7

// Color returns the chart marker color used for the status.
func (s Status) Color() string {
	switch s {
	case StatusOutOfSpec:
		return "red"
	case StatusWarning:
		return "orange"
	default:
		return "green"
	}
}

// Classify assigns exactly one status to v. The warning comparison is strict:
// a value sitting exactly on the warning threshold is in spec.
func Classify(v, target, usl, lsl float64) Status {
	if v > usl || v < lsl {
		return StatusOutOfSpec
	}
	if math.Abs(v-target) > math.Abs(usl-target)*WarningRatio {
		return StatusWarning
	}
	return StatusInSpec
}
