// Package exercise holds the static exercise catalogue: for each supported
// lift, the set of landmarks the validator cares about and the single
// landmark recommended as the default tracking point.
package exercise

import (
	"fmt"
	"sort"

	"github.com/barbell-data/velocity.coach/internal/pose"
)

// Exercise describes one supported lift.
type Exercise struct {
	Name string

	// RelevantKeypoints are the landmarks that matter for this lift; tap
	// resolution only considers these.
	RelevantKeypoints []pose.KeypointName

	// RecommendedPoint is the default tracking point offered to the coach.
	RecommendedPoint pose.KeypointName
}

// Relevant reports whether the named landmark belongs to this exercise.
func (e Exercise) Relevant(name pose.KeypointName) bool {
	for _, n := range e.RelevantKeypoints {
		if n == name {
			return true
		}
	}
	return false
}

var catalogue = map[string]Exercise{
	"Back Squat": {
		Name: "Back Squat",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		RecommendedPoint: pose.LeftHip,
	},
	"Front Squat": {
		Name: "Front Squat",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		RecommendedPoint: pose.LeftHip,
	},
	"Deadlift": {
		Name: "Deadlift",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		RecommendedPoint: pose.LeftHip,
	},
	"Romanian Deadlift": {
		Name: "Romanian Deadlift",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
		},
		RecommendedPoint: pose.LeftHip,
	},
	"Hip Thrust": {
		Name: "Hip Thrust",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
		},
		RecommendedPoint: pose.LeftHip,
	},
	"Bench Press": {
		Name: "Bench Press",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftWrist, pose.RightWrist,
		},
		RecommendedPoint: pose.LeftWrist,
	},
	"Overhead Press": {
		Name: "Overhead Press",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftWrist, pose.RightWrist,
		},
		RecommendedPoint: pose.LeftWrist,
	},
	"Push Press": {
		Name: "Push Press",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
		},
		RecommendedPoint: pose.LeftWrist,
	},
	"Barbell Row": {
		Name: "Barbell Row",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftElbow, pose.RightElbow,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
		},
		RecommendedPoint: pose.LeftWrist,
	},
	"Power Clean": {
		Name: "Power Clean",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
		},
		RecommendedPoint: pose.LeftWrist,
	},
	"Snatch": {
		Name: "Snatch",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
		},
		RecommendedPoint: pose.LeftWrist,
	},
	"Lunge": {
		Name: "Lunge",
		RelevantKeypoints: []pose.KeypointName{
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
			pose.LeftAnkle, pose.RightAnkle,
		},
		RecommendedPoint: pose.LeftHip,
	},
}

// Lookup returns the exercise for the given catalogue name.
func Lookup(name string) (Exercise, error) {
	ex, ok := catalogue[name]
	if !ok {
		return Exercise{}, fmt.Errorf("unknown exercise %q", name)
	}
	return ex, nil
}

// Names returns the catalogue exercise names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
