// Package session orchestrates the per-frame validation pipeline. The
// Pipeline facade runs Stage 1→2→3→4/5 in order, short-circuiting the
// tracking stages until stability passes, and assembles the unified
// per-frame result consumed by the host.
//
// The pipeline is single-threaded and frame-synchronous: all mutable
// state is owned by one Pipeline instance and mutated only inside
// ProcessFrame. The recording flag is the only cross-goroutine signal and
// is read through the injected RecordingController.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/barbell-data/velocity.coach/internal/calibration"
	"github.com/barbell-data/velocity.coach/internal/config"
	"github.com/barbell-data/velocity.coach/internal/engine/reps"
	"github.com/barbell-data/velocity.coach/internal/engine/stability"
	"github.com/barbell-data/velocity.coach/internal/engine/trackpoint"
	"github.com/barbell-data/velocity.coach/internal/engine/velocity"
	"github.com/barbell-data/velocity.coach/internal/exercise"
	"github.com/barbell-data/velocity.coach/internal/pose"
)

// Result is the unified per-frame pipeline output.
type Result struct {
	Stage Stage
	Flags ValidationFlags

	// Position is the smoothed tracking-point position; HasPosition is
	// false until the first trackable observation.
	Position    trackpoint.Sample
	HasPosition bool

	// Velocity is the smoothed, noise-filtered bar speed in m/s. Zero
	// unless the frame is trackable and the stage permits calculation.
	Velocity  float64
	Direction velocity.Direction

	// SubjectPresence is the fraction of exercise-relevant landmarks
	// visible above the presence confidence threshold.
	SubjectPresence float64

	StabilityProgress float64
	Message           string

	RepCompleted bool
	Rep          reps.Record
}

// Pipeline drives the progressive validation stages for one session.
type Pipeline struct {
	sessionID string

	presenceThreshold float64
	tapMaxDistance    float64
	trackingThreshold float64

	recorder  *RecordingController
	stability *stability.Validator
	tracker   *trackpoint.Manager
	velocity  *velocity.Calculator
	noise     velocity.NoiseFilter
	reps      *reps.Detector

	exercise exercise.Exercise
	stage    Stage
}

// NewPipeline assembles a pipeline from tuning, calibration, and the
// injected recording controller.
func NewPipeline(cfg *config.TuningConfig, cam *calibration.Camera, recorder *RecordingController) *Pipeline {
	return &Pipeline{
		sessionID:         fmt.Sprintf("ses_%s", uuid.NewString()),
		presenceThreshold: cfg.GetPresenceConfidenceThreshold(),
		tapMaxDistance:    cfg.GetTapMaxDistance(),
		trackingThreshold: cfg.GetTrackingConfidenceThreshold(),
		recorder:          recorder,
		stability:         stability.NewValidator(stability.ConfigFromTuning(cfg)),
		tracker:           trackpoint.NewManager(trackpoint.ConfigFromTuning(cfg)),
		velocity:          velocity.NewCalculator(velocity.ConfigFromTuning(cfg), cam),
		noise:             velocity.NoiseFilterFromTuning(cfg),
		reps:              reps.NewDetector(reps.ConfigFromTuning(cfg)),
		stage:             StageInitializing,
	}
}

// SessionID returns the unique session identifier.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// SetExercise selects the active exercise, reconfiguring the relevant
// keypoint set and restarting stabilization from scratch.
func (p *Pipeline) SetExercise(name string) error {
	ex, err := exercise.Lookup(name)
	if err != nil {
		return err
	}
	p.exercise = ex
	p.stability.Reset()
	return nil
}

// Exercise returns the active exercise.
func (p *Pipeline) Exercise() exercise.Exercise {
	return p.exercise
}

// SetTrackingPoint selects the tracking point directly by landmark name.
func (p *Pipeline) SetTrackingPoint(name pose.KeypointName, x, y float64) error {
	if !name.IsValid() {
		return fmt.Errorf("unknown keypoint name %q", name)
	}
	p.tracker.Set(name, x, y)
	return nil
}

// ResolveTrackingPoint maps a normalized tap coordinate to the nearest
// exercise-relevant landmark and selects it as the tracking point.
func (p *Pipeline) ResolveTrackingPoint(frame *pose.Frame, x, y float64) (pose.KeypointName, bool) {
	name, ok := trackpoint.ResolveTap(frame, p.exercise.RelevantKeypoints, x, y, p.trackingThreshold, p.tapMaxDistance)
	if !ok {
		return "", false
	}
	kp, _ := frame.Find(name)
	p.tracker.Set(name, kp.X, kp.Y)
	return name, true
}

// ClearTrackingPoint removes the tracking point and its history.
func (p *Pipeline) ClearTrackingPoint() {
	p.tracker.Clear()
}

// TrackingPoint returns the current tracking point.
func (p *Pipeline) TrackingPoint() trackpoint.TrackingPoint {
	return p.tracker.Point()
}

// Stage returns the current session stage.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Records returns the session rep log in completion order.
func (p *Pipeline) Records() []reps.Record {
	return p.reps.Records()
}

// Export shapes the session rep log into the external payload.
func (p *Pipeline) Export(loadKg float64) []reps.SetEntry {
	return reps.ExportSet(p.reps.Records(), loadKg)
}

// ProcessFrame runs one frame through the validation stages. frame may be
// nil for "no detection". Exactly one call per delivered detection.
func (p *Pipeline) ProcessFrame(frame *pose.Frame, now time.Time) Result {
	usable := p.stability.CheckFrameUsable(frame)
	p.stability.UpdateStability(usable)
	stable := p.stability.FrameStable()

	// Stage 3 is short-circuited until Stage 2 passes; trackability is
	// never an input to stability.
	trackable := false
	if stable {
		trackable = p.tracker.CheckFrameTrackable(frame)
	}

	stage := p.resolveStage(usable, stable, trackable)
	if stage == StageInitializing && p.stage != StageInitializing {
		// Losing the subject invalidates the movement baseline.
		p.velocity.Reset()
	}
	p.stage = stage

	flags := ValidationFlags{
		FrameUsable:    usable,
		FrameStable:    stable,
		FrameTrackable: trackable,
		FrameValid:     usable && stable && trackable,
	}
	flags.FrameCountable = flags.FrameValid && stage == StageRecording

	res := Result{
		Stage:             stage,
		StabilityProgress: p.stability.Progress(),
		Direction:         velocity.DirectionStationary,
		SubjectPresence:   p.subjectPresence(frame),
	}

	if trackable {
		kp, _ := frame.Find(p.tracker.Point().Name)
		p.tracker.Observe(kp, now)
		if sm, ok := p.tracker.SmoothedPosition(); ok {
			res.Position = sm
			res.HasPosition = true

			meas := p.velocity.Update(sm.Y, now)
			if stage.CanCalculate() {
				res.Velocity = p.noise.FilterVelocity(meas.Smoothed)
				res.Direction = meas.Direction

				if stage == StageRecording {
					if rec, done := p.reps.Update(res.Velocity, meas.Direction, now); done {
						res.RepCompleted = true
						res.Rep = rec
					}
				}
			}
		}
	}

	res.Flags = flags
	res.Message = p.statusMessage(stage)
	return res
}

// resolveStage applies the strict validation hierarchy. READY is
// reachable with no tracking point ever set; RECORDING is entered purely
// on the controller signal.
func (p *Pipeline) resolveStage(usable, stable, trackable bool) Stage {
	switch {
	case !usable:
		return StageInitializing
	case !stable:
		return StageStabilizing
	case !trackable:
		return StageReady
	case !p.recorder.IsActive():
		return StageTracking
	default:
		return StageRecording
	}
}

// subjectPresence is the fraction of exercise-relevant landmarks visible
// above the presence threshold. Diagnostic only; it gates nothing.
func (p *Pipeline) subjectPresence(frame *pose.Frame) float64 {
	if len(p.exercise.RelevantKeypoints) == 0 || frame.Empty() {
		return 0
	}
	present := 0
	for _, name := range p.exercise.RelevantKeypoints {
		if kp, ok := frame.Find(name); ok && kp.Score >= p.presenceThreshold {
			present++
		}
	}
	return float64(present) / float64(len(p.exercise.RelevantKeypoints))
}

func (p *Pipeline) statusMessage(stage Stage) string {
	switch stage {
	case StageInitializing:
		return "no subject detected"
	case StageStabilizing:
		return fmt.Sprintf("stabilizing detection (%.0f%%)", p.stability.Progress()*100)
	case StageReady:
		if !p.tracker.Point().Set {
			return "detection stable, select a tracking point"
		}
		return "tracking point not visible"
	case StageTracking:
		return "tracking, start recording to count reps"
	case StageRecording:
		return "recording"
	}
	return ""
}

// Reset clears all pipeline state: counters, buffers, history, the rep
// log, and the recording flag. A rep in progress is discarded. Calling
// Reset twice is the same as calling it once, apart from the fresh
// session ID.
func (p *Pipeline) Reset() {
	p.sessionID = fmt.Sprintf("ses_%s", uuid.NewString())
	p.stability.Reset()
	p.tracker.Reset()
	p.velocity.Reset()
	p.reps.Reset()
	p.recorder.Reset()
	p.stage = StageInitializing
}
