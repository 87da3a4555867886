package session

import "sync/atomic"

// RecordingController is the single source of truth for "recording
// active". It is an explicit shared handle injected into the pipeline
// rather than a hidden global: the user-interface call path toggles it,
// the pipeline only ever reads it. The flag is atomic because the toggle
// arrives on a different call path than ProcessFrame.
type RecordingController struct {
	active atomic.Bool
}

// NewRecordingController returns an inactive controller.
func NewRecordingController() *RecordingController {
	return &RecordingController{}
}

// Start marks recording active.
func (r *RecordingController) Start() {
	r.active.Store(true)
}

// Stop marks recording inactive.
func (r *RecordingController) Stop() {
	r.active.Store(false)
}

// IsActive reports whether recording is active.
func (r *RecordingController) IsActive() bool {
	return r.active.Load()
}

// Reset is equivalent to Stop; it exists so session reset reads as intent.
func (r *RecordingController) Reset() {
	r.active.Store(false)
}
