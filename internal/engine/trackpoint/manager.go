// Package trackpoint implements Stage 3 of the validation pipeline: the
// tracking point manager. A tracking point is identified by landmark NAME,
// never by screen coordinate, so its identity survives the subject moving
// around the frame.
package trackpoint

import (
	"math"
	"time"

	"github.com/barbell-data/velocity.coach/internal/config"
	"github.com/barbell-data/velocity.coach/internal/pose"
)

// Config holds the Stage 3 tracking parameters.
type Config struct {
	// ConfidenceThreshold is the minimum keypoint score for the tracked
	// landmark to count as visible. Deliberately lower than the presence
	// threshold used elsewhere; both are tuned independently.
	ConfidenceThreshold float64

	SmoothingWindow int           // max samples in the moving-average window
	SmoothingMaxAge time.Duration // samples older than this are aged out
	TapMaxDistance  float64       // normalized-distance cutoff for tap resolution
}

// ConfigFromTuning builds a trackpoint Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		ConfidenceThreshold: cfg.GetTrackingConfidenceThreshold(),
		SmoothingWindow:     cfg.GetSmoothingWindow(),
		SmoothingMaxAge:     cfg.GetSmoothingMaxAge(),
		TapMaxDistance:      cfg.GetTapMaxDistance(),
	}
}

// TrackingPoint is the coach-selected landmark being measured.
type TrackingPoint struct {
	Name pose.KeypointName
	X    float64
	Y    float64
	Set  bool
}

// Sample is a timestamped normalized position.
type Sample struct {
	X float64
	Y float64
	T time.Time
}

// Manager owns the tracking point and its smoothed position history.
type Manager struct {
	cfg Config

	point TrackingPoint

	// raw holds the recent observed positions feeding the moving average.
	raw []Sample

	// smoothed keeps the two most recent smoothed samples for delta and
	// velocity computation.
	smoothed      [2]Sample
	smoothedCount int
}

// NewManager creates a tracking point manager.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, raw: make([]Sample, 0, cfg.SmoothingWindow)}
}

// Set selects the tracking point by landmark name and clears history.
func (m *Manager) Set(name pose.KeypointName, x, y float64) {
	m.point = TrackingPoint{Name: name, X: x, Y: y, Set: true}
	m.clearHistory()
}

// Clear removes the tracking point and its history.
func (m *Manager) Clear() {
	m.point = TrackingPoint{}
	m.clearHistory()
}

// Reset is the session-level reset: same as Clear.
func (m *Manager) Reset() {
	m.Clear()
}

func (m *Manager) clearHistory() {
	m.raw = m.raw[:0]
	m.smoothedCount = 0
}

// Point returns the current tracking point; Set is false when none is set.
func (m *Manager) Point() TrackingPoint {
	return m.point
}

// CheckFrameTrackable reports whether the tracked landmark is visible in
// the frame with sufficient confidence. Fails when no point is set, the
// frame is absent, the landmark is missing, or its score is below the
// tracking confidence threshold.
func (m *Manager) CheckFrameTrackable(frame *pose.Frame) bool {
	if !m.point.Set {
		return false
	}
	kp, ok := frame.Find(m.point.Name)
	if !ok {
		return false
	}
	return kp.Score >= m.cfg.ConfidenceThreshold
}

// Observe records the tracked landmark's position for this frame and
// advances the smoothed history. Call only after CheckFrameTrackable has
// passed.
func (m *Manager) Observe(kp pose.Keypoint, t time.Time) {
	m.point.X = kp.X
	m.point.Y = kp.Y

	m.raw = append(m.raw, Sample{X: kp.X, Y: kp.Y, T: t})
	m.pruneRaw(t)

	sm, ok := m.average()
	if !ok {
		return
	}
	sm.T = t
	if m.smoothedCount < 2 {
		m.smoothed[m.smoothedCount] = sm
		m.smoothedCount++
		return
	}
	m.smoothed[0] = m.smoothed[1]
	m.smoothed[1] = sm
}

// pruneRaw drops samples past the age window and caps the window length.
func (m *Manager) pruneRaw(now time.Time) {
	cutoff := now.Add(-m.cfg.SmoothingMaxAge)
	keepFrom := 0
	for keepFrom < len(m.raw) && m.raw[keepFrom].T.Before(cutoff) {
		keepFrom++
	}
	if keepFrom > 0 {
		m.raw = append(m.raw[:0], m.raw[keepFrom:]...)
	}
	if len(m.raw) > m.cfg.SmoothingWindow {
		m.raw = append(m.raw[:0], m.raw[len(m.raw)-m.cfg.SmoothingWindow:]...)
	}
}

func (m *Manager) average() (Sample, bool) {
	if len(m.raw) == 0 {
		return Sample{}, false
	}
	var sx, sy float64
	for _, s := range m.raw {
		sx += s.X
		sy += s.Y
	}
	n := float64(len(m.raw))
	return Sample{X: sx / n, Y: sy / n}, true
}

// SmoothedPosition returns the most recent smoothed position.
func (m *Manager) SmoothedPosition() (Sample, bool) {
	if m.smoothedCount == 0 {
		return Sample{}, false
	}
	return m.smoothed[m.smoothedCount-1], true
}

// MovementDelta returns the Euclidean distance between the two most
// recent smoothed samples, in normalized units. Zero until two samples
// exist.
func (m *Manager) MovementDelta() float64 {
	if m.smoothedCount < 2 {
		return 0
	}
	dx := m.smoothed[1].X - m.smoothed[0].X
	dy := m.smoothed[1].Y - m.smoothed[0].Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Velocity returns the signed vertical rate between the two most recent
// smoothed samples, in normalized units per second. Positive is downward
// (screen Y grows downward). Zero until two samples exist or when the
// samples are not strictly ordered in time.
func (m *Manager) Velocity() float64 {
	if m.smoothedCount < 2 {
		return 0
	}
	dt := m.smoothed[1].T.Sub(m.smoothed[0].T).Seconds()
	if dt <= 0 {
		return 0
	}
	return (m.smoothed[1].Y - m.smoothed[0].Y) / dt
}

// ResolveTap maps a normalized tap coordinate to the nearest candidate
// landmark with sufficient confidence, within the maxDistance cutoff.
func ResolveTap(frame *pose.Frame, candidates []pose.KeypointName, x, y, minScore, maxDistance float64) (pose.KeypointName, bool) {
	best := pose.KeypointName("")
	bestDist := maxDistance
	for _, name := range candidates {
		kp, ok := frame.Find(name)
		if !ok || kp.Score < minScore {
			continue
		}
		dx := kp.X - x
		dy := kp.Y - y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist <= bestDist {
			best = name
			bestDist = dist
		}
	}
	return best, best != ""
}
