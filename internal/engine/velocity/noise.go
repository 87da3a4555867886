package velocity

import (
	"math"

	"github.com/barbell-data/velocity.coach/internal/config"
)

// NoiseFilter suppresses sub-threshold movement and velocity readings.
// It is stateless and exists as an isolated tuning seam: both thresholds
// can be adjusted without touching the calculator or the rep detector.
type NoiseFilter struct {
	MinMovementDelta  float64 // normalized units
	VelocityThreshold float64 // m/s
}

// NoiseFilterFromTuning builds a NoiseFilter from a loaded TuningConfig.
func NoiseFilterFromTuning(cfg *config.TuningConfig) NoiseFilter {
	return NoiseFilter{
		MinMovementDelta:  cfg.GetMinMovementDelta(),
		VelocityThreshold: cfg.GetVelocityFilterThreshold(),
	}
}

// FilterMovement zeroes deltas below the movement floor.
func (f NoiseFilter) FilterMovement(delta float64) float64 {
	if math.Abs(delta) < f.MinMovementDelta {
		return 0
	}
	return delta
}

// FilterVelocity zeroes velocities below the velocity floor.
func (f NoiseFilter) FilterVelocity(v float64) float64 {
	if math.Abs(v) < f.VelocityThreshold {
		return 0
	}
	return v
}
