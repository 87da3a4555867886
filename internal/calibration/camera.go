// Package calibration converts normalized screen displacements into
// real-world meters using a pinhole camera model. Calibration is
// session-immutable: degenerate values are rejected once at construction
// so the per-frame path can never produce NaN or Inf velocities.
package calibration

import (
	"fmt"
	"math"
)

// Camera holds the session camera setup.
type Camera struct {
	HeightCm      float64 // camera height above the floor
	DistanceCm    float64 // camera-to-subject horizontal distance
	FOVDegrees    float64 // vertical field of view
	FrameHeightPx float64 // sensor frame height in pixels
}

// New validates the camera setup and returns an immutable calibration.
func New(heightCm, distanceCm, fovDegrees, frameHeightPx float64) (*Camera, error) {
	c := &Camera{
		HeightCm:      heightCm,
		DistanceCm:    distanceCm,
		FOVDegrees:    fovDegrees,
		FrameHeightPx: frameHeightPx,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Camera) validate() error {
	if c.DistanceCm <= 0 {
		return fmt.Errorf("camera distance must be positive, got %.1fcm", c.DistanceCm)
	}
	if c.HeightCm <= 0 {
		return fmt.Errorf("camera height must be positive, got %.1fcm", c.HeightCm)
	}
	if c.FOVDegrees <= 0 || c.FOVDegrees >= 180 {
		return fmt.Errorf("field of view must be in (0, 180) degrees, got %.1f", c.FOVDegrees)
	}
	if c.FrameHeightPx <= 0 {
		return fmt.Errorf("frame height must be positive, got %.0fpx", c.FrameHeightPx)
	}
	return nil
}

// FocalLengthPx returns the pinhole focal length in pixels:
// frameHeightPx / (2·tan(fov/2)).
func (c *Camera) FocalLengthPx() float64 {
	halfFOVRad := c.FOVDegrees * math.Pi / 360.0
	return c.FrameHeightPx / (2 * math.Tan(halfFOVRad))
}

// MetersPerNormalizedUnit returns the real-world span, in meters, of one
// full normalized screen unit at the subject distance.
func (c *Camera) MetersPerNormalizedUnit() float64 {
	distanceM := c.DistanceCm / 100.0
	return distanceM / c.FocalLengthPx() * c.FrameHeightPx
}

// NormalizedToMeters converts a normalized screen displacement to meters.
func (c *Camera) NormalizedToMeters(delta float64) float64 {
	return delta * c.MetersPerNormalizedUnit()
}
