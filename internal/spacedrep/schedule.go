package spacedrep

import (
	"fmt"
	"math"

	"github.com/abhisek/recall/internal/apperr"
)

// SM-2 constants.
const (
	InitialEase   = 2.5
	MinEase       = 1.3
	FirstInterval = 1
	// SecondInterval is the interval after the second consecutive success.
	SecondInterval = 6
	// PassQuality is the lowest quality that counts as a successful recall.
	PassQuality = 3
	MaxQuality  = 5
)

// ValidateQuality returns apperr.ErrInvalidQuality when q is outside [0,5].
func ValidateQuality(q int) error {
	if q < 0 || q > MaxQuality {
		return fmt.Errorf("%w: %d not in [0,%d]", apperr.ErrInvalidQuality, q, MaxQuality)
	}
	return nil
}

// NextEase applies the SM-2 ease update for quality q, clamped at MinEase.
func NextEase(ease float64, q int) float64 {
	miss := float64(MaxQuality - q)
	return math.Max(MinEase, ease+(0.1-miss*(0.08+miss*0.02)))
}

// NextInterval returns the interval in days after the repetitions-th
// consecutive success, growing the previous interval by ease.
func NextInterval(repetitions, prevInterval int, ease float64) int {
	switch repetitions {
	case 1:
		return FirstInterval
	case 2:
		return SecondInterval
	default:
		return int(math.Round(float64(prevInterval) * ease))
	}
}
