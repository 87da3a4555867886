package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyTuningConfig()

	assert.Equal(t, 0.3, cfg.GetMinUsableScore())
	assert.Equal(t, 5, cfg.GetRequiredStableFrames())
	assert.Equal(t, 1, cfg.GetStabilityDecayRate())
	assert.Equal(t, 0.5, cfg.GetTrackingConfidenceThreshold())
	assert.Equal(t, 0.6, cfg.GetPresenceConfidenceThreshold())
	assert.Equal(t, 5, cfg.GetSmoothingWindow())
	assert.Equal(t, 500*time.Millisecond, cfg.GetSmoothingMaxAge())
	assert.Equal(t, 0.15, cfg.GetTapMaxDistance())
	assert.Equal(t, 0.02, cfg.GetNoiseThreshold())
	assert.Equal(t, 3.0, cfg.GetMaxValidVelocity())
	assert.Equal(t, time.Second, cfg.GetMaxSampleAge())
	assert.Equal(t, 0.01, cfg.GetDirectionDeadband())
	assert.Equal(t, 0.02, cfg.GetMinMovementDelta())
	assert.Equal(t, 0.05, cfg.GetVelocityFilterThreshold())
	assert.Equal(t, 0.03, cfg.GetMinVelocityThreshold())
	assert.Equal(t, 0.05, cfg.GetDirectionChangeThreshold())
	assert.Equal(t, time.Second, cfg.GetTransitionTimeout())
	assert.Equal(t, 300*time.Millisecond, cfg.GetRepLockoutDuration())
	assert.Equal(t, 10*time.Second, cfg.GetMaxRepDuration())
	assert.Equal(t, 2, cfg.GetStationarySamplesToComplete())
}

func TestLoadTuningConfig(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "tuning.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("partial config keeps defaults for omitted fields", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{"required_stable_frames": 8, "rep_lockout_duration": "450ms"}`)

		cfg, err := LoadTuningConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.GetRequiredStableFrames())
		assert.Equal(t, 450*time.Millisecond, cfg.GetRepLockoutDuration())
		// Omitted fields fall back to defaults.
		assert.Equal(t, 0.3, cfg.GetMinUsableScore())
		assert.Equal(t, 0.5, cfg.GetTrackingConfidenceThreshold())
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "tuning.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})

	t.Run("rejects out-of-range threshold", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{"tracking_confidence_threshold": 1.5}`)
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})

	t.Run("rejects bad duration", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{"transition_timeout": "soon"}`)
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})

	t.Run("rejects zero stable frames", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{"required_stable_frames": 0}`)
		_, err := LoadTuningConfig(path)
		assert.Error(t, err)
	})
}

func TestMustLoadDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := MustLoadDefaultConfig()
	// The canonical defaults file should agree with the accessor defaults.
	assert.Equal(t, 5, cfg.GetRequiredStableFrames())
	assert.Equal(t, 0.5, cfg.GetTrackingConfidenceThreshold())
	assert.Equal(t, 0.6, cfg.GetPresenceConfidenceThreshold())
	assert.Equal(t, 10*time.Second, cfg.GetMaxRepDuration())
}
