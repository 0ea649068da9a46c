// Package target computes difficulty targets from raw curriculum values.
//
// Two distinct value spaces are involved and must not be conflated:
// raw curriculum values (scale defined per subject) and normalized
// difficulty targets in [0.35, 1.0]. Normalize/Remap bridge the two;
// CarryForward names the one place where a raw value is reused as the
// target seed for the next ranking pass.
package target

import "math"

// Remap coefficients. Every target is compressed into [0.35, 1.0],
// biasing item selection toward higher predicted difficulty. This must
// match the seed used when the difficulty model was trained.
const (
	remapBase = 0.35
	remapSpan = 0.65

	// degenerateNorm is the normalized value used when a subject's raw
	// value range is collapsed or non-finite.
	degenerateNorm = 0.5
)

// Normalize maps raw onto [0,1] within the subject range (min, max).
// Collapsed (min >= max) or non-finite ranges yield 0.5.
func Normalize(raw, min, max float64) float64 {
	if !isFinite(min) || !isFinite(max) || min >= max {
		return degenerateNorm
	}
	norm := (raw - min) / (max - min)
	return clamp01(norm)
}

// Remap compresses a normalized value into the [0.35, 1.0] target band.
func Remap(norm float64) float64 {
	return remapBase + remapSpan*norm
}

// FromRaw computes the difficulty target for a raw curriculum value
// against the subject range (min, max).
func FromRaw(raw, min, max float64) float64 {
	return Remap(Normalize(raw, min, max))
}

// InitialSeed returns the raw-value seed for a freshly started session:
// the midpoint of the subject's raw value range. Empty, collapsed or
// non-finite ranges yield 0.5. The result is a raw value, not a
// difficulty target; the ranking pass normalizes it itself.
func InitialSeed(values []float64) float64 {
	if len(values) == 0 {
		return degenerateNorm
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !isFinite(min) || !isFinite(max) || min >= max {
		return degenerateNorm
	}
	return 0.5 * (min + max)
}

// CarryForward returns the target seed carried to the next ranking pass
// after serving an item: the item's raw curriculum value, not the
// normalized difficulty. The difficulty model was calibrated against
// raw-value seeds.
func CarryForward(standardValue float64) float64 {
	return standardValue
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
