// Package config loads and validates the pipeline tuning parameters.
// Fields omitted from a tuning JSON file fall back to the canonical
// defaults baked into the Get* accessors, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Every threshold the validation pipeline and rep detector use lives
// here so a single JSON file can reconfigure a whole session.
type TuningConfig struct {
	// Stage 1/2 stability params
	MinUsableScore       *float64 `json:"min_usable_score,omitempty"`
	RequiredStableFrames *int     `json:"required_stable_frames,omitempty"`
	StabilityDecayRate   *int     `json:"stability_decay_rate,omitempty"`

	// Stage 3 tracking params.
	// Tracking and presence confidence are deliberately separate tunables:
	// product has not clarified why they differ (0.5 vs 0.6), so both are
	// preserved rather than unified.
	TrackingConfidenceThreshold *float64 `json:"tracking_confidence_threshold,omitempty"`
	PresenceConfidenceThreshold *float64 `json:"presence_confidence_threshold,omitempty"`
	SmoothingWindow             *int     `json:"smoothing_window,omitempty"`
	SmoothingMaxAge             *string  `json:"smoothing_max_age,omitempty"` // duration string like "500ms"
	TapMaxDistance              *float64 `json:"tap_max_distance,omitempty"`

	// Velocity calculator params
	NoiseThreshold    *float64 `json:"noise_threshold,omitempty"`
	MaxValidVelocity  *float64 `json:"max_valid_velocity,omitempty"`
	MaxSampleAge      *string  `json:"max_sample_age,omitempty"` // duration string like "1s"
	DirectionDeadband *float64 `json:"direction_deadband,omitempty"`

	// Noise filter params
	MinMovementDelta        *float64 `json:"min_movement_delta,omitempty"`
	VelocityFilterThreshold *float64 `json:"velocity_filter_threshold,omitempty"`

	// Rep detector params
	MinVelocityThreshold        *float64 `json:"min_velocity_threshold,omitempty"`
	DirectionChangeThreshold    *float64 `json:"direction_change_threshold,omitempty"`
	TransitionTimeout           *string  `json:"transition_timeout,omitempty"`
	RepLockoutDuration          *string  `json:"rep_lockout_duration,omitempty"`
	MaxRepDuration              *string  `json:"max_rep_duration,omitempty"`
	StationarySamplesToComplete *int     `json:"stationary_samples_to_complete,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/engine/*/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	unitFields := []struct {
		name string
		v    *float64
	}{
		{"min_usable_score", c.MinUsableScore},
		{"tracking_confidence_threshold", c.TrackingConfidenceThreshold},
		{"presence_confidence_threshold", c.PresenceConfidenceThreshold},
	}
	for _, f := range unitFields {
		if f.v != nil && (*f.v < 0 || *f.v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", f.name, *f.v)
		}
	}

	if c.RequiredStableFrames != nil && *c.RequiredStableFrames < 1 {
		return fmt.Errorf("required_stable_frames must be positive, got %d", *c.RequiredStableFrames)
	}
	if c.StabilityDecayRate != nil && *c.StabilityDecayRate < 0 {
		return fmt.Errorf("stability_decay_rate must be non-negative, got %d", *c.StabilityDecayRate)
	}
	if c.SmoothingWindow != nil && *c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be positive, got %d", *c.SmoothingWindow)
	}
	if c.MaxValidVelocity != nil && *c.MaxValidVelocity <= 0 {
		return fmt.Errorf("max_valid_velocity must be positive, got %f", *c.MaxValidVelocity)
	}
	if c.StationarySamplesToComplete != nil && *c.StationarySamplesToComplete < 1 {
		return fmt.Errorf("stationary_samples_to_complete must be positive, got %d", *c.StationarySamplesToComplete)
	}

	durationFields := []struct {
		name string
		v    *string
	}{
		{"smoothing_max_age", c.SmoothingMaxAge},
		{"max_sample_age", c.MaxSampleAge},
		{"transition_timeout", c.TransitionTimeout},
		{"rep_lockout_duration", c.RepLockoutDuration},
		{"max_rep_duration", c.MaxRepDuration},
	}
	for _, f := range durationFields {
		if f.v != nil && *f.v != "" {
			if _, err := time.ParseDuration(*f.v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", f.name, *f.v, err)
			}
		}
	}

	return nil
}

func (c *TuningConfig) durationOrDefault(v *string, fallback time.Duration) time.Duration {
	if v == nil || *v == "" {
		return fallback
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fallback // default on parse error
	}
	return d
}

// GetMinUsableScore returns the min_usable_score value or the default.
func (c *TuningConfig) GetMinUsableScore() float64 {
	if c.MinUsableScore == nil {
		return 0.3 // default
	}
	return *c.MinUsableScore
}

// GetRequiredStableFrames returns the required_stable_frames value or the default.
func (c *TuningConfig) GetRequiredStableFrames() int {
	if c.RequiredStableFrames == nil {
		return 5 // default
	}
	return *c.RequiredStableFrames
}

// GetStabilityDecayRate returns the stability_decay_rate value or the default.
func (c *TuningConfig) GetStabilityDecayRate() int {
	if c.StabilityDecayRate == nil {
		return 1 // default
	}
	return *c.StabilityDecayRate
}

// GetTrackingConfidenceThreshold returns the tracking_confidence_threshold value or the default.
func (c *TuningConfig) GetTrackingConfidenceThreshold() float64 {
	if c.TrackingConfidenceThreshold == nil {
		return 0.5 // default
	}
	return *c.TrackingConfidenceThreshold
}

// GetPresenceConfidenceThreshold returns the presence_confidence_threshold value or the default.
func (c *TuningConfig) GetPresenceConfidenceThreshold() float64 {
	if c.PresenceConfidenceThreshold == nil {
		return 0.6 // default
	}
	return *c.PresenceConfidenceThreshold
}

// GetSmoothingWindow returns the smoothing_window value or the default.
func (c *TuningConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return 5 // default
	}
	return *c.SmoothingWindow
}

// GetSmoothingMaxAge parses and returns the SmoothingMaxAge as a time.Duration.
func (c *TuningConfig) GetSmoothingMaxAge() time.Duration {
	return c.durationOrDefault(c.SmoothingMaxAge, 500*time.Millisecond)
}

// GetTapMaxDistance returns the tap_max_distance value or the default.
func (c *TuningConfig) GetTapMaxDistance() float64 {
	if c.TapMaxDistance == nil {
		return 0.15 // default (normalized units)
	}
	return *c.TapMaxDistance
}

// GetNoiseThreshold returns the noise_threshold value or the default.
func (c *TuningConfig) GetNoiseThreshold() float64 {
	if c.NoiseThreshold == nil {
		return 0.02 // default (m/s)
	}
	return *c.NoiseThreshold
}

// GetMaxValidVelocity returns the max_valid_velocity value or the default.
func (c *TuningConfig) GetMaxValidVelocity() float64 {
	if c.MaxValidVelocity == nil {
		return 3.0 // default (m/s)
	}
	return *c.MaxValidVelocity
}

// GetMaxSampleAge parses and returns the MaxSampleAge as a time.Duration.
func (c *TuningConfig) GetMaxSampleAge() time.Duration {
	return c.durationOrDefault(c.MaxSampleAge, time.Second)
}

// GetDirectionDeadband returns the direction_deadband value or the default.
func (c *TuningConfig) GetDirectionDeadband() float64 {
	if c.DirectionDeadband == nil {
		return 0.01 // default (normalized units)
	}
	return *c.DirectionDeadband
}

// GetMinMovementDelta returns the min_movement_delta value or the default.
func (c *TuningConfig) GetMinMovementDelta() float64 {
	if c.MinMovementDelta == nil {
		return 0.02 // default (normalized units)
	}
	return *c.MinMovementDelta
}

// GetVelocityFilterThreshold returns the velocity_filter_threshold value or the default.
func (c *TuningConfig) GetVelocityFilterThreshold() float64 {
	if c.VelocityFilterThreshold == nil {
		return 0.05 // default (m/s)
	}
	return *c.VelocityFilterThreshold
}

// GetMinVelocityThreshold returns the min_velocity_threshold value or the default.
func (c *TuningConfig) GetMinVelocityThreshold() float64 {
	if c.MinVelocityThreshold == nil {
		return 0.03 // default (m/s)
	}
	return *c.MinVelocityThreshold
}

// GetDirectionChangeThreshold returns the direction_change_threshold value or the default.
func (c *TuningConfig) GetDirectionChangeThreshold() float64 {
	if c.DirectionChangeThreshold == nil {
		return 0.05 // default (m/s)
	}
	return *c.DirectionChangeThreshold
}

// GetTransitionTimeout parses and returns the TransitionTimeout as a time.Duration.
func (c *TuningConfig) GetTransitionTimeout() time.Duration {
	return c.durationOrDefault(c.TransitionTimeout, time.Second)
}

// GetRepLockoutDuration parses and returns the RepLockoutDuration as a time.Duration.
func (c *TuningConfig) GetRepLockoutDuration() time.Duration {
	return c.durationOrDefault(c.RepLockoutDuration, 300*time.Millisecond)
}

// GetMaxRepDuration parses and returns the MaxRepDuration as a time.Duration.
func (c *TuningConfig) GetMaxRepDuration() time.Duration {
	return c.durationOrDefault(c.MaxRepDuration, 10*time.Second)
}

// GetStationarySamplesToComplete returns the stationary_samples_to_complete value or the default.
func (c *TuningConfig) GetStationarySamplesToComplete() int {
	if c.StationarySamplesToComplete == nil {
		return 2 // default
	}
	return *c.StationarySamplesToComplete
}
