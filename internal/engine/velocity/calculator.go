// Package velocity turns smoothed tracking positions into calibrated
// bar-speed measurements. Raw per-frame velocities are outlier-clamped
// before entering a smoothing ring buffer, and movement direction carries
// a deadband so slow drifts do not flicker between up and down.
package velocity

import (
	"time"

	"github.com/barbell-data/velocity.coach/internal/calibration"
	"github.com/barbell-data/velocity.coach/internal/config"
)

// Direction classifies vertical bar movement for one sample.
type Direction string

const (
	DirectionUp         Direction = "up"
	DirectionDown       Direction = "down"
	DirectionStationary Direction = "stationary"
)

// Config holds the velocity calculator parameters.
type Config struct {
	SmoothingWindow   int           // ring buffer size for the smoothed velocity
	NoiseThreshold    float64       // minimum valid instantaneous velocity (m/s)
	MaxValidVelocity  float64       // maximum valid instantaneous velocity (m/s)
	MaxSampleAge      time.Duration // samples further apart than this are stale
	DirectionDeadband float64       // normalized Δy below which direction is stationary
}

// ConfigFromTuning builds a velocity Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		SmoothingWindow:   cfg.GetSmoothingWindow(),
		NoiseThreshold:    cfg.GetNoiseThreshold(),
		MaxValidVelocity:  cfg.GetMaxValidVelocity(),
		MaxSampleAge:      cfg.GetMaxSampleAge(),
		DirectionDeadband: cfg.GetDirectionDeadband(),
	}
}

// Measurement is the per-frame calculator output.
type Measurement struct {
	Instant   float64   // instantaneous speed magnitude (m/s)
	Smoothed  float64   // ring-buffer mean of valid samples (m/s)
	Valid     bool      // whether Instant passed the noise/outlier clamp
	Direction Direction // vertical movement classification
}

type position struct {
	y float64
	t time.Time
}

// Calculator computes calibrated vertical bar velocity from a position
// stream.
type Calculator struct {
	cfg Config
	cal *calibration.Camera

	// positions is a bounded buffer of recent samples; only the two most
	// recent drive the instantaneous velocity.
	positions []position

	// ring holds recent valid velocities for smoothing.
	ring []float64

	lastDirection Direction
}

// NewCalculator creates a calibrated velocity calculator.
func NewCalculator(cfg Config, cal *calibration.Camera) *Calculator {
	return &Calculator{
		cfg:           cfg,
		cal:           cal,
		positions:     make([]position, 0, 2*cfg.SmoothingWindow),
		ring:          make([]float64, 0, cfg.SmoothingWindow),
		lastDirection: DirectionStationary,
	}
}

// Update ingests a smoothed vertical position and returns the current
// measurement. Stale or duplicate timestamps invalidate the sample but
// never the session.
func (c *Calculator) Update(y float64, t time.Time) Measurement {
	c.positions = append(c.positions, position{y: y, t: t})
	if max := 2 * c.cfg.SmoothingWindow; len(c.positions) > max {
		c.positions = append(c.positions[:0], c.positions[len(c.positions)-max:]...)
	}

	m := Measurement{Direction: c.lastDirection, Smoothed: c.Smoothed()}
	if len(c.positions) < 2 {
		return m
	}

	prev := c.positions[len(c.positions)-2]
	curr := c.positions[len(c.positions)-1]

	dt := curr.t.Sub(prev.t)
	if dt <= 0 || dt > c.cfg.MaxSampleAge {
		return m
	}

	dy := curr.y - prev.y
	m.Direction = c.classify(dy)
	c.lastDirection = m.Direction

	speed := c.cal.NormalizedToMeters(abs(dy)) / dt.Seconds()
	m.Instant = speed
	m.Valid = speed >= c.cfg.NoiseThreshold && speed <= c.cfg.MaxValidVelocity

	if m.Valid {
		c.ring = append(c.ring, speed)
		if len(c.ring) > c.cfg.SmoothingWindow {
			c.ring = append(c.ring[:0], c.ring[len(c.ring)-c.cfg.SmoothingWindow:]...)
		}
	}
	m.Smoothed = c.Smoothed()
	return m
}

func (c *Calculator) classify(dy float64) Direction {
	switch {
	case dy < -c.cfg.DirectionDeadband:
		return DirectionUp
	case dy > c.cfg.DirectionDeadband:
		return DirectionDown
	default:
		return DirectionStationary
	}
}

// Smoothed returns the mean of the valid-velocity ring buffer.
func (c *Calculator) Smoothed() float64 {
	if len(c.ring) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.ring {
		sum += v
	}
	return sum / float64(len(c.ring))
}

// Direction returns the most recent movement classification.
func (c *Calculator) Direction() Direction {
	return c.lastDirection
}

// Reset clears all buffers and the direction state.
func (c *Calculator) Reset() {
	c.positions = c.positions[:0]
	c.ring = c.ring[:0]
	c.lastDirection = DirectionStationary
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
