package session

// Stage is the single authoritative session state, derived every frame
// from the validation hierarchy. Ordering is strict: each stage requires
// everything the previous one did, plus one more gate.
type Stage string

const (
	StageInitializing Stage = "initializing" // no usable detection
	StageStabilizing  Stage = "stabilizing"  // usable but not yet sustained
	StageReady        Stage = "ready"        // stable; tracking point missing or not visible
	StageTracking     Stage = "tracking"     // stable and trackable; not recording
	StageRecording    Stage = "recording"    // stable, trackable, and recording active
)

// CanCalculate reports whether velocity may be computed in this stage.
func (s Stage) CanCalculate() bool {
	switch s {
	case StageReady, StageTracking, StageRecording:
		return true
	}
	return false
}

// ValidationFlags are the per-frame gating outputs, hierarchical in
// evaluation order. FrameStable is derived from detection quality alone
// and never from tracking-point state.
type ValidationFlags struct {
	FrameUsable    bool
	FrameStable    bool
	FrameTrackable bool
	FrameValid     bool
	FrameCountable bool
}
