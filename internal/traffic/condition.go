// Package traffic classifies road congestion between a patient and a
// hospital from live flow samples.
package traffic

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput reports speeds that cannot be classified.
var ErrInvalidInput = errors.New("invalid traffic sample")

// Condition is an ordered congestion class, best to worst.
type Condition string

const (
	Clear    Condition = "clear"
	Minor    Condition = "minor"
	Moderate Condition = "moderate"
	Heavy    Condition = "heavy"
)

// Ratio thresholds of current speed over free-flow speed, inclusive.
const (
	clearRatio    = 0.85
	minorRatio    = 0.65
	moderateRatio = 0.40
)

// Classify maps a current/free-flow speed pair to a Condition.
func Classify(currentSpeed, freeFlowSpeed float64) (Condition, error) {
	if math.IsNaN(currentSpeed) || math.IsNaN(freeFlowSpeed) || math.IsInf(currentSpeed, 0) || math.IsInf(freeFlowSpeed, 0) {
		return "", fmt.Errorf("%w: speeds must be finite", ErrInvalidInput)
	}
	if freeFlowSpeed <= 0 {
		return "", fmt.Errorf("%w: free-flow speed must be positive, got %g", ErrInvalidInput, freeFlowSpeed)
	}
	if currentSpeed < 0 {
		return "", fmt.Errorf("%w: current speed must not be negative, got %g", ErrInvalidInput, currentSpeed)
	}

	ratio := currentSpeed / freeFlowSpeed
	switch {
	case ratio >= clearRatio:
		return Clear, nil
	case ratio >= minorRatio:
		return Minor, nil
	case ratio >= moderateRatio:
		return Moderate, nil
	default:
		return Heavy, nil
	}
}

// Valid reports whether c is one of the four known conditions.
func (c Condition) Valid() bool {
	switch c {
	case Clear, Minor, Moderate, Heavy:
		return true
	}
	return false
}

// Label is the French wording used in recommendation text.
func (c Condition) Label() string {
	switch c {
	case Clear:
		return "léger"
	case Minor:
		return "ralenti"
	case Heavy:
		return "dense"
	default:
		return "modéré"
	}
}
