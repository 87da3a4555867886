// Package stability implements the Stage 1/2 frame gate: is the current
// detection usable at all, and has detection been sustained long enough to
// trust derived data.
//
// The stability counter decays on unusable frames instead of hard
// resetting, so a single dropped frame does not restart stabilization from
// zero. A hard reset happens only after a long unusable run. Stability is
// evaluated from detection quality alone and never consults tracking-point
// state: a tracking point can only be placed on an already-stable stream.
package stability

import (
	"github.com/barbell-data/velocity.coach/internal/config"
	"github.com/barbell-data/velocity.coach/internal/pose"
)

// Config holds the Stage 1/2 gating parameters.
type Config struct {
	MinUsableScore       float64 // minimum keypoint score for a frame to count as usable
	RequiredStableFrames int     // counter level at which the stream is stable
	DecayRate            int     // counter decrement per unusable frame
}

// ConfigFromTuning builds a stability Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		MinUsableScore:       cfg.GetMinUsableScore(),
		RequiredStableFrames: cfg.GetRequiredStableFrames(),
		DecayRate:            cfg.GetStabilityDecayRate(),
	}
}

// Validator tracks frame usability over time and derives the frameStable
// gate with hysteresis.
type Validator struct {
	cfg Config

	counter             int
	consecutiveUnusable int
}

// NewValidator creates a Stage 1/2 validator with the given parameters.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// CheckFrameUsable is Stage 1: the frame is present, carries at least one
// keypoint, and at least one keypoint clears the usable-score floor.
func (v *Validator) CheckFrameUsable(frame *pose.Frame) bool {
	if frame.Empty() {
		return false
	}
	for _, kp := range frame.Keypoints {
		if kp.Score >= v.cfg.MinUsableScore {
			return true
		}
	}
	return false
}

// UpdateStability is Stage 2: advance the counter on a usable frame,
// decay it on an unusable one. The counter hard-resets to zero only when
// the unusable run exceeds twice the required stable frames.
func (v *Validator) UpdateStability(usable bool) {
	if usable {
		v.counter++
		v.consecutiveUnusable = 0
		return
	}

	v.consecutiveUnusable++
	if v.consecutiveUnusable > 2*v.cfg.RequiredStableFrames {
		v.counter = 0
		return
	}

	v.counter -= v.cfg.DecayRate
	if v.counter < 0 {
		v.counter = 0
	}
}

// FrameStable reports whether the counter has reached the required level.
func (v *Validator) FrameStable() bool {
	return v.counter >= v.cfg.RequiredStableFrames
}

// Progress returns stabilization progress clamped to [0, 1].
func (v *Validator) Progress() float64 {
	if v.cfg.RequiredStableFrames <= 0 {
		return 1
	}
	p := float64(v.counter) / float64(v.cfg.RequiredStableFrames)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Counter exposes the raw stability counter for diagnostics.
func (v *Validator) Counter() int {
	return v.counter
}

// Reset clears all stability state.
func (v *Validator) Reset() {
	v.counter = 0
	v.consecutiveUnusable = 0
}
