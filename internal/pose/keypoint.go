// Package pose defines the per-frame body-landmark data model consumed by
// the validation and velocity pipeline. Frames are produced by an external
// pose-estimation collaborator and are ephemeral: one frame (or nil, for
// "no detection") per camera frame.
package pose

import (
	"fmt"
	"time"
)

// KeypointName identifies a body landmark. The set is closed: only the 17
// standard detector landmarks are valid, so exercise-table typos are caught
// at compile time by referencing the constants and at runtime by
// ParseKeypointName for external input.
type KeypointName string

const (
	Nose          KeypointName = "nose"
	LeftEye       KeypointName = "left_eye"
	RightEye      KeypointName = "right_eye"
	LeftEar       KeypointName = "left_ear"
	RightEar      KeypointName = "right_ear"
	LeftShoulder  KeypointName = "left_shoulder"
	RightShoulder KeypointName = "right_shoulder"
	LeftElbow     KeypointName = "left_elbow"
	RightElbow    KeypointName = "right_elbow"
	LeftWrist     KeypointName = "left_wrist"
	RightWrist    KeypointName = "right_wrist"
	LeftHip       KeypointName = "left_hip"
	RightHip      KeypointName = "right_hip"
	LeftKnee      KeypointName = "left_knee"
	RightKnee     KeypointName = "right_knee"
	LeftAnkle     KeypointName = "left_ankle"
	RightAnkle    KeypointName = "right_ankle"
)

// AllKeypointNames lists every valid landmark in detector output order.
var AllKeypointNames = []KeypointName{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow,
	LeftWrist, RightWrist, LeftHip, RightHip,
	LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

var keypointNameSet = func() map[KeypointName]struct{} {
	m := make(map[KeypointName]struct{}, len(AllKeypointNames))
	for _, n := range AllKeypointNames {
		m[n] = struct{}{}
	}
	return m
}()

// IsValid reports whether the name is one of the closed landmark set.
func (n KeypointName) IsValid() bool {
	_, ok := keypointNameSet[n]
	return ok
}

// ParseKeypointName validates an externally supplied landmark name.
func ParseKeypointName(s string) (KeypointName, error) {
	n := KeypointName(s)
	if !n.IsValid() {
		return "", fmt.Errorf("unknown keypoint name %q", s)
	}
	return n, nil
}

// Keypoint is a single confidence-scored landmark detection. X and Y are
// normalized to [0,1] with the origin at the top-left of the frame, so Y
// increases downward.
type Keypoint struct {
	Name  KeypointName `json:"name"`
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
	Score float64      `json:"score"`
}

// Frame is one detection result. A nil *Frame is the expected "no
// detection" state, not an error. Keypoint names within a frame are unique;
// NewFrame enforces this for externally built frames.
type Frame struct {
	Keypoints []Keypoint `json:"keypoints"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewFrame builds a frame from detector output, rejecting duplicate or
// unknown landmark names.
func NewFrame(keypoints []Keypoint, timestamp time.Time) (*Frame, error) {
	seen := make(map[KeypointName]struct{}, len(keypoints))
	for _, kp := range keypoints {
		if !kp.Name.IsValid() {
			return nil, fmt.Errorf("unknown keypoint name %q", kp.Name)
		}
		if _, dup := seen[kp.Name]; dup {
			return nil, fmt.Errorf("duplicate keypoint %q in frame", kp.Name)
		}
		seen[kp.Name] = struct{}{}
	}
	return &Frame{Keypoints: keypoints, Timestamp: timestamp}, nil
}

// Find returns the named keypoint if present in the frame. Safe on a nil
// frame.
func (f *Frame) Find(name KeypointName) (Keypoint, bool) {
	if f == nil {
		return Keypoint{}, false
	}
	for _, kp := range f.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// Empty reports whether the frame carries no detections. A nil frame is
// empty.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Keypoints) == 0
}
