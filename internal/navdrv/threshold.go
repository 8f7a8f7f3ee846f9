// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package navdrv

import (
	"errors"
	"fmt"
)

// Level is the discrete state of a threshold detector. The numeric values are
// wire codes: LevelLow doubles as the ObjectNear event code.
type Level uint8

const (
	LevelNormal Level = 0
	LevelLow    Level = 2
	LevelHigh   Level = 3
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelHigh:
		return "high"
	case LevelNormal:
		return "normal"
	}
	return "unknown"
}

// ErrInvalidThreshold is returned when a threshold update would break
// min <= low <= high <= max. The prior configuration is kept.
var ErrInvalidThreshold = errors.New("navdrv: threshold ordering violated")

// ThresholdDetector is a hysteresis state machine mapping a continuous value
// onto {Normal, High, Low}. One driver instance owns each detector; it is not
// safe for concurrent use.
type ThresholdDetector struct {
	min, max  int
	low, high int
	level     Level
}

// NewThresholdDetector builds a detector over [min, max] with the given
// bounds. Initial level is Normal.
func NewThresholdDetector(min, low, high, max int) (*ThresholdDetector, error) {
	if !(min <= low && low <= high && high <= max) {
		return nil, fmt.Errorf("%w: min=%d low=%d high=%d max=%d",
			ErrInvalidThreshold, min, low, high, max)
	}
	return &ThresholdDetector{min: min, max: max, low: low, high: high, level: LevelNormal}, nil
}

// SetLevel recomputes the level for value and reports whether it changed
// since the previous call. value <= low maps to Low, value >= high to High,
// anything between to Normal.
func (d *ThresholdDetector) SetLevel(value int) (Level, bool) {
	next := LevelNormal
	switch {
	case value <= d.low:
		next = LevelLow
	case value >= d.high:
		next = LevelHigh
	}
	changed := next != d.level
	d.level = next
	return next, changed
}

// Level returns the level computed by the last SetLevel call.
func (d *ThresholdDetector) Level() Level { return d.level }

// Threshold returns the configured boundary for a level: Low maps to the low
// threshold, High to the high one, anything else to 0.
func (d *ThresholdDetector) Threshold(l Level) int {
	switch l {
	case LevelLow:
		return d.low
	case LevelHigh:
		return d.high
	}
	return 0
}

// SetLowThreshold replaces the low bound. Rejected, not clamped, when the
// ordering invariant would break.
func (d *ThresholdDetector) SetLowThreshold(v int) error {
	if v < d.min || v > d.high {
		return fmt.Errorf("%w: low=%d outside [%d, %d]", ErrInvalidThreshold, v, d.min, d.high)
	}
	d.low = v
	return nil
}

// SetHighThreshold replaces the high bound under the same invariant.
func (d *ThresholdDetector) SetHighThreshold(v int) error {
	if v < d.low || v > d.max {
		return fmt.Errorf("%w: high=%d outside [%d, %d]", ErrInvalidThreshold, v, d.low, d.max)
	}
	d.high = v
	return nil
}
