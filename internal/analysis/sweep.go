package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Default sweep bounds.
const (
	DefaultMinResolution = 0.0
	DefaultMaxResolution = 2.0
	DefaultStep          = 0.1
)

var (
	// ErrInvalidSweep is returned for bad sweep bounds or step.
	ErrInvalidSweep = errors.New("invalid resolution sweep")

	// ErrUnsortedSweep is returned when resolutions are not strictly ascending.
	ErrUnsortedSweep = errors.New("resolutions must be strictly ascending")

	// ErrMissingResolution is returned when a sweep resolution has no partition.
	ErrMissingResolution = errors.New("no partition for resolution")
)

// MaxSweepPoints bounds the number of resolutions in a sweep.
const MaxSweepPoints = 100000

// Sweep returns the resolutions from min to max inclusive in increments of
// step, each rounded to the decimal precision of its inputs.
func Sweep(min, max, step float64) ([]float64, error) {
	switch {
	case math.IsNaN(min) || math.IsNaN(max) || math.IsNaN(step) ||
		math.IsInf(min, 0) || math.IsInf(max, 0) || math.IsInf(step, 0):
		return nil, fmt.Errorf("bounds must be finite: %w", ErrInvalidSweep)
	case step <= 0:
		return nil, fmt.Errorf("step %v must be positive: %w", step, ErrInvalidSweep)
	case min < 0:
		return nil, fmt.Errorf("min %v must not be negative: %w", min, ErrInvalidSweep)
	case max < min:
		return nil, fmt.Errorf("max %v below min %v: %w", max, min, ErrInvalidSweep)
	}

	places := decimals(step)
	if p := decimals(min); p > places {
		places = p
	}

	span := math.Floor((max-min)/step + 1e-9)
	if math.IsInf(span, 0) || span >= MaxSweepPoints {
		return nil, fmt.Errorf("step %v yields more than %d resolutions: %w", step, MaxSweepPoints, ErrInvalidSweep)
	}
	n := int(span)
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, round(min+float64(i)*step, places))
	}
	return out, nil
}

// ValidateSweep checks that resolutions are finite, non-negative and
// strictly ascending.
func ValidateSweep(sweep []float64) error {
	for i, r := range sweep {
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return fmt.Errorf("resolution %v: %w", r, ErrInvalidSweep)
		}
		if i > 0 && r <= sweep[i-1] {
			return fmt.Errorf("%v follows %v: %w", r, sweep[i-1], ErrUnsortedSweep)
		}
	}
	return nil
}

func decimals(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
