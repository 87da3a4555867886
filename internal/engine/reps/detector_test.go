package reps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbell-data/velocity.coach/internal/engine/velocity"
)

func testConfig() Config {
	return Config{
		MinVelocityThreshold:        0.03,
		DirectionChangeThreshold:    0.05,
		TransitionTimeout:           time.Second,
		LockoutDuration:             300 * time.Millisecond,
		MaxRepDuration:              10 * time.Second,
		StationarySamplesToComplete: 2,
	}
}

// clock issues strictly increasing timestamps at a fixed frame interval.
type clock struct {
	now  time.Time
	step time.Duration
}

func newClock() *clock {
	return &clock{now: time.Unix(1700000000, 0), step: 33 * time.Millisecond}
}

func (c *clock) tick() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

// driveToConcentric walks the detector from idle into the concentric
// phase with the given concentric speed as the first sample.
func driveToConcentric(t *testing.T, d *Detector, c *clock, upSpeed float64) {
	t.Helper()
	_, done := d.Update(0.50, velocity.DirectionDown, c.tick())
	require.False(t, done)
	require.Equal(t, PhaseEccentric, d.Phase())

	_, done = d.Update(0.02, velocity.DirectionStationary, c.tick())
	require.False(t, done)
	require.Equal(t, PhaseTransition, d.Phase())

	_, done = d.Update(upSpeed, velocity.DirectionUp, c.tick())
	require.False(t, done)
	require.Equal(t, PhaseConcentric, d.Phase())
}

func TestCompletionByVelocityCollapse(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	_, done := d.Update(0.50, velocity.DirectionDown, c.tick())
	require.False(t, done)
	d.Update(0.60, velocity.DirectionDown, c.tick())
	d.Update(0.02, velocity.DirectionStationary, c.tick())
	d.Update(0.55, velocity.DirectionUp, c.tick())
	d.Update(0.65, velocity.DirectionUp, c.tick())
	d.Update(0.60, velocity.DirectionUp, c.tick())

	rec, done := d.Update(0.01, velocity.DirectionUp, c.tick())
	require.True(t, done)

	assert.Equal(t, 1, rec.RepNumber)
	assert.InDelta(t, 0.60, rec.MeanVelocity, 1e-9)
	assert.InDelta(t, 0.65, rec.PeakVelocity, 1e-9)
	assert.InDelta(t, 0.55, rec.EccentricVelocity, 1e-9)
	assert.Equal(t, 0.0, rec.VelocityDropPercent)
	assert.NotEmpty(t, rec.RecordID)
	assert.Greater(t, rec.TotalDuration, rec.ConcentricDuration)
	assert.Equal(t, PhaseLockout, d.Phase())
}

func TestCompletionByDirectionReversal(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	driveToConcentric(t, d, c, 0.55)
	d.Update(0.60, velocity.DirectionUp, c.tick())

	// Bar heading down again at speed: the next rep is starting.
	rec, done := d.Update(0.40, velocity.DirectionDown, c.tick())
	require.True(t, done)
	assert.InDelta(t, 0.575, rec.MeanVelocity, 1e-9)
}

func TestCompletionByStationaryRun(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	driveToConcentric(t, d, c, 0.55)

	// Smoothed speed stays above the collapse threshold, so only the
	// stationary-run heuristic can finish the rep.
	_, done := d.Update(0.20, velocity.DirectionStationary, c.tick())
	require.False(t, done, "one stationary sample is not enough")

	rec, done := d.Update(0.20, velocity.DirectionStationary, c.tick())
	require.True(t, done)
	assert.Equal(t, 1, rec.RepNumber)
}

func TestImmediateFlipSkipsTransition(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	d.Update(0.50, velocity.DirectionDown, c.tick())
	require.Equal(t, PhaseEccentric, d.Phase())

	d.Update(0.45, velocity.DirectionUp, c.tick())
	assert.Equal(t, PhaseConcentric, d.Phase())
}

func TestTransitionTimeoutAborts(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	d.Update(0.50, velocity.DirectionDown, c.tick())
	d.Update(0.02, velocity.DirectionStationary, c.tick())
	require.Equal(t, PhaseTransition, d.Phase())

	// Dwell at the bottom past the timeout.
	c.now = c.now.Add(1100 * time.Millisecond)
	_, done := d.Update(0.01, velocity.DirectionStationary, c.tick())

	assert.False(t, done)
	assert.Equal(t, PhaseIdle, d.Phase())
	assert.Equal(t, 0, d.Count(), "aborted rep must not be recorded")
}

func TestLockoutPreventsDoubleCounting(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	driveToConcentric(t, d, c, 0.55)
	_, done := d.Update(0.01, velocity.DirectionUp, c.tick())
	require.True(t, done)
	require.Equal(t, PhaseLockout, d.Phase())

	// A fast downward sample inside the lockout window is ignored.
	_, done = d.Update(0.50, velocity.DirectionDown, c.tick())
	assert.False(t, done)
	assert.Equal(t, PhaseLockout, d.Phase())

	// After the lockout expires the same sample starts the next rep.
	c.now = c.now.Add(400 * time.Millisecond)
	_, done = d.Update(0.50, velocity.DirectionDown, c.tick())
	assert.False(t, done)
	assert.Equal(t, PhaseEccentric, d.Phase())
}

func TestMaxRepDurationAborts(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	d.Update(0.50, velocity.DirectionDown, c.tick())
	require.Equal(t, PhaseEccentric, d.Phase())

	c.now = c.now.Add(11 * time.Second)
	_, done := d.Update(0.02, velocity.DirectionStationary, c.tick())

	assert.False(t, done)
	assert.Equal(t, PhaseIdle, d.Phase())
	assert.Equal(t, 0, d.Count())
}

// performRep drives one full rep whose concentric samples all have the
// given speed, completing by velocity collapse, and waits out lockout.
func performRep(t *testing.T, d *Detector, c *clock, speed float64) Record {
	t.Helper()
	d.Update(0.50, velocity.DirectionDown, c.tick())
	d.Update(0.02, velocity.DirectionStationary, c.tick())
	d.Update(speed, velocity.DirectionUp, c.tick())
	d.Update(speed, velocity.DirectionUp, c.tick())
	rec, done := d.Update(0.01, velocity.DirectionUp, c.tick())
	require.True(t, done)
	c.now = c.now.Add(400 * time.Millisecond)
	return rec
}

func TestBaselineFreezeAndVelocityDrop(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	first := performRep(t, d, c, 0.60)
	assert.Equal(t, 1, first.RepNumber)
	assert.Equal(t, 0.0, first.VelocityDropPercent)

	baseline, ok := d.Baseline()
	require.True(t, ok)
	assert.InDelta(t, 0.60, baseline, 1e-9)

	second := performRep(t, d, c, 0.50)
	assert.Equal(t, 2, second.RepNumber)
	assert.InDelta(t, 100*(0.60-0.50)/0.60, second.VelocityDropPercent, 1e-9)

	// A faster rep never produces a negative drop.
	third := performRep(t, d, c, 0.70)
	assert.Equal(t, 0.0, third.VelocityDropPercent)

	// Baseline stays frozen at the first rep's mean.
	baseline, _ = d.Baseline()
	assert.InDelta(t, 0.60, baseline, 1e-9)
}

func TestVelocityDropMonotonicity(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	speeds := []float64{0.60, 0.55, 0.50, 0.45, 0.40}
	var lastDrop float64 = -1
	for _, s := range speeds {
		rec := performRep(t, d, c, s)
		assert.GreaterOrEqual(t, rec.VelocityDropPercent, 0.0)
		assert.Greater(t, rec.VelocityDropPercent, lastDrop,
			"strictly decreasing velocities must yield strictly increasing drop")
		lastDrop = rec.VelocityDropPercent
	}
	assert.Equal(t, len(speeds), d.Count())
}

func TestResetIdempotence(t *testing.T) {
	t.Parallel()
	d := NewDetector(testConfig())
	c := newClock()

	performRep(t, d, c, 0.60)
	d.Update(0.50, velocity.DirectionDown, c.tick()) // rep in flight

	d.Reset()
	after := d.Records()
	d.Reset()

	assert.Equal(t, after, d.Records())
	assert.Empty(t, d.Records())
	assert.Equal(t, PhaseIdle, d.Phase())
	_, ok := d.Baseline()
	assert.False(t, ok)
}

func TestExportContract(t *testing.T) {
	t.Parallel()

	rec := Record{MeanVelocity: 0.5, PeakVelocity: 0.8, VelocityDropPercent: 12.5}
	entry := rec.Export(100)

	assert.Equal(t, 0.5, entry.MeanVelocity)
	assert.Equal(t, 0.8, entry.PeakVelocity)
	assert.Equal(t, 100.0, entry.LoadKg)
	assert.InDelta(t, 100*0.5*9.81, entry.PowerWatts, 1e-9)
	assert.Equal(t, 12.5, entry.VelocityDrop)

	entries := ExportSet([]Record{rec, rec}, 100)
	assert.Len(t, entries, 2)
}
