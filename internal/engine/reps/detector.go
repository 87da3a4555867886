// Package reps detects repetitions from the calibrated velocity stream.
//
// A rep walks idle → eccentric → transition → concentric → lockout → idle.
// Completion is decided by three heuristics evaluated in a fixed order
// (velocity collapse, direction reversal, stationary run) because real
// movement rarely produces one clean stop signal. Lockout prevents double
// counting; timeouts discard only the in-progress rep, never the session.
// All durations are evaluated lazily by wall-clock comparison on the next
// sample, so a pause in frame delivery pauses the detector rather than
// racing it.
package reps

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/barbell-data/velocity.coach/internal/config"
	"github.com/barbell-data/velocity.coach/internal/engine/velocity"
)

// Phase is the rep sub-state nested inside the RECORDING session stage.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEccentric  Phase = "eccentric"
	PhaseTransition Phase = "transition"
	PhaseConcentric Phase = "concentric"
	PhaseLockout    Phase = "lockout"
)

// Config holds the rep detection parameters.
type Config struct {
	MinVelocityThreshold float64 // minimum speed to start or resume a phase (m/s)

	// DirectionChangeThreshold is stricter than MinVelocityThreshold so a
	// momentary slowdown does not end the eccentric phase prematurely.
	DirectionChangeThreshold float64 // m/s

	TransitionTimeout           time.Duration // bottom-of-lift dwell before abort
	LockoutDuration             time.Duration // dead time after a completed rep
	MaxRepDuration              time.Duration // any phase older than this aborts
	StationarySamplesToComplete int           // consecutive stationary concentric samples that finish a rep
}

// ConfigFromTuning builds a rep detector Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		MinVelocityThreshold:        cfg.GetMinVelocityThreshold(),
		DirectionChangeThreshold:    cfg.GetDirectionChangeThreshold(),
		TransitionTimeout:           cfg.GetTransitionTimeout(),
		LockoutDuration:             cfg.GetRepLockoutDuration(),
		MaxRepDuration:              cfg.GetMaxRepDuration(),
		StationarySamplesToComplete: cfg.GetStationarySamplesToComplete(),
	}
}

// Record is one completed repetition. Immutable once created.
type Record struct {
	RecordID  string    `json:"record_id"`
	RepNumber int       `json:"rep_number"`

	MeanVelocity      float64 `json:"mean_velocity"`      // concentric mean (m/s)
	PeakVelocity      float64 `json:"peak_velocity"`      // concentric peak (m/s)
	EccentricVelocity float64 `json:"eccentric_velocity"` // eccentric mean (m/s)

	EccentricDuration  time.Duration `json:"eccentric_duration"`
	ConcentricDuration time.Duration `json:"concentric_duration"`
	TotalDuration      time.Duration `json:"total_duration"`

	// VelocityDropPercent is relative to the session baseline: the first
	// completed rep's mean velocity, frozen once set.
	VelocityDropPercent float64 `json:"velocity_drop_percent"`

	Timestamp time.Time `json:"timestamp"`
}

// Detector is the single rep-phase engine for the session.
type Detector struct {
	cfg Config

	phase           Phase
	repStart        time.Time
	phaseStart      time.Time
	concentricStart time.Time
	lockoutStart    time.Time

	eccentricSamples  []float64
	concentricSamples []float64
	stationaryRun     int

	baseline    float64
	baselineSet bool

	records []Record
}

// NewDetector creates an idle rep detector.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg, phase: PhaseIdle}
}

// Update feeds one velocity sample into the phase machine. speed is the
// smoothed speed magnitude; dir classifies the vertical movement. When a
// rep completes this call, the finished Record is returned with true.
func (d *Detector) Update(speed float64, dir velocity.Direction, now time.Time) (Record, bool) {
	if d.phase == PhaseLockout {
		if now.Sub(d.lockoutStart) < d.cfg.LockoutDuration {
			return Record{}, false
		}
		d.phase = PhaseIdle
	}

	if d.phase != PhaseIdle && now.Sub(d.repStart) > d.cfg.MaxRepDuration {
		d.abort()
	}

	switch d.phase {
	case PhaseIdle:
		if dir == velocity.DirectionDown && speed >= d.cfg.MinVelocityThreshold {
			d.phase = PhaseEccentric
			d.repStart = now
			d.phaseStart = now
			d.eccentricSamples = append(d.eccentricSamples[:0], speed)
		}

	case PhaseEccentric:
		switch {
		case dir == velocity.DirectionUp:
			// Immediate flip: the bottom was sharp enough that no
			// transition dwell was observed.
			d.enterConcentric(speed, now)
		case dir == velocity.DirectionStationary || speed < d.cfg.DirectionChangeThreshold:
			d.phase = PhaseTransition
			d.phaseStart = now
		default:
			d.eccentricSamples = append(d.eccentricSamples, speed)
		}

	case PhaseTransition:
		if dir == velocity.DirectionUp && speed >= d.cfg.MinVelocityThreshold {
			d.enterConcentric(speed, now)
		} else if now.Sub(d.phaseStart) > d.cfg.TransitionTimeout {
			d.abort()
		}

	case PhaseConcentric:
		// Completion heuristics, first match wins. The terminating sample
		// is not part of the rep's concentric statistics.
		switch {
		case speed < d.cfg.DirectionChangeThreshold:
			return d.complete(now), true
		case dir == velocity.DirectionDown && speed >= d.cfg.MinVelocityThreshold:
			// Next rep already starting.
			return d.complete(now), true
		default:
			if dir == velocity.DirectionStationary {
				d.stationaryRun++
				if d.stationaryRun >= d.cfg.StationarySamplesToComplete {
					return d.complete(now), true
				}
			} else {
				d.stationaryRun = 0
			}
			d.concentricSamples = append(d.concentricSamples, speed)
		}
	}

	return Record{}, false
}

func (d *Detector) enterConcentric(speed float64, now time.Time) {
	d.phase = PhaseConcentric
	d.phaseStart = now
	d.concentricStart = now
	d.stationaryRun = 0
	d.concentricSamples = append(d.concentricSamples[:0], speed)
}

// complete captures the rep statistics into a Record BEFORE the sample
// buffers are cleared for the next rep.
func (d *Detector) complete(now time.Time) Record {
	mean, peak := meanPeak(d.concentricSamples)
	eccMean, _ := meanPeak(d.eccentricSamples)

	rec := Record{
		RecordID:           fmt.Sprintf("rep_%s", uuid.NewString()),
		RepNumber:          len(d.records) + 1,
		MeanVelocity:       mean,
		PeakVelocity:       peak,
		EccentricVelocity:  eccMean,
		EccentricDuration:  d.concentricStart.Sub(d.repStart),
		ConcentricDuration: now.Sub(d.concentricStart),
		TotalDuration:      now.Sub(d.repStart),
		Timestamp:          now,
	}

	if !d.baselineSet {
		d.baseline = mean
		d.baselineSet = true
	} else if d.baseline > 0 {
		drop := (d.baseline - mean) / d.baseline * 100
		if drop < 0 {
			drop = 0
		}
		rec.VelocityDropPercent = drop
	}

	d.records = append(d.records, rec)

	d.eccentricSamples = d.eccentricSamples[:0]
	d.concentricSamples = d.concentricSamples[:0]
	d.stationaryRun = 0
	d.phase = PhaseLockout
	d.lockoutStart = now

	return rec
}

// abort discards the in-progress rep and returns to idle. The session and
// any already-completed records are untouched.
func (d *Detector) abort() {
	d.phase = PhaseIdle
	d.eccentricSamples = d.eccentricSamples[:0]
	d.concentricSamples = d.concentricSamples[:0]
	d.stationaryRun = 0
}

// Phase returns the current rep phase.
func (d *Detector) Phase() Phase {
	return d.phase
}

// Count returns the number of completed reps this session.
func (d *Detector) Count() int {
	return len(d.records)
}

// Baseline returns the frozen session baseline velocity, if set.
func (d *Detector) Baseline() (float64, bool) {
	return d.baseline, d.baselineSet
}

// Records returns a copy of the session rep log in completion order.
func (d *Detector) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Reset clears all detector state including the session log and baseline.
// An in-progress rep is discarded, never half-recorded.
func (d *Detector) Reset() {
	d.abort()
	d.records = nil
	d.baseline = 0
	d.baselineSet = false
	d.lockoutStart = time.Time{}
	d.repStart = time.Time{}
	d.phaseStart = time.Time{}
	d.concentricStart = time.Time{}
}

func meanPeak(samples []float64) (mean, peak float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
		if v > peak {
			peak = v
		}
	}
	return sum / float64(len(samples)), peak
}
