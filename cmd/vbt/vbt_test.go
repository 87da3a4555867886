package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbell-data/velocity.coach/internal/calibration"
	"github.com/barbell-data/velocity.coach/internal/config"
	"github.com/barbell-data/velocity.coach/internal/engine/session"
	"github.com/barbell-data/velocity.coach/internal/pose"
)

func TestBuildFrame(t *testing.T) {
	base := time.Unix(0, 0)

	frame, err := buildFrame(logFrame{TMs: 33}, base)
	require.NoError(t, err)
	assert.Nil(t, frame, "no keypoints should replay as a dropped detection")

	lf := logFrame{TMs: 66}
	lf.Keypoints = append(lf.Keypoints, struct {
		Name  string  `json:"name"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Score float64 `json:"score"`
	}{Name: "left_hip", X: 0.45, Y: 0.52, Score: 0.9})

	frame, err = buildFrame(lf, base)
	require.NoError(t, err)
	require.NotNil(t, frame)
	kp, ok := frame.Find(pose.LeftHip)
	require.True(t, ok)
	assert.Equal(t, 0.52, kp.Y)

	lf.Keypoints[0].Name = "left_flipper"
	_, err = buildFrame(lf, base)
	assert.Error(t, err)
}

// writeSquatLog synthesizes a pose log with one full squat rep: hold,
// descent, ascent, hold.
func writeSquatLog(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	tMs := int64(0)
	emit := func(hipY float64) {
		fmt.Fprintf(&b,
			`{"t_ms":%d,"keypoints":[{"name":"left_hip","x":0.45,"y":%.4f,"score":0.9},{"name":"left_knee","x":0.45,"y":%.4f,"score":0.9},{"name":"left_ankle","x":0.45,"y":%.4f,"score":0.9}]}`+"\n",
			tMs, hipY, hipY+0.15, hipY+0.30)
		tMs += 33
	}

	y := 0.50
	for i := 0; i < 8; i++ {
		emit(y)
	}
	for i := 0; i < 20; i++ {
		y += 0.012
		emit(y)
	}
	for i := 0; i < 20; i++ {
		y -= 0.012
		emit(y)
	}
	for i := 0; i < 15; i++ {
		emit(y)
	}

	path := filepath.Join(t.TempDir(), "squat.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestReplayDetectsRep(t *testing.T) {
	cam, err := calibration.New(100, 250, 60, 1080)
	require.NoError(t, err)

	recorder := session.NewRecordingController()
	pipe := session.NewPipeline(config.MustLoadDefaultConfig(), cam, recorder)
	require.NoError(t, pipe.SetExercise("Back Squat"))
	require.NoError(t, pipe.SetTrackingPoint(pose.LeftHip, 0.45, 0.50))

	f, err := os.Open(writeSquatLog(t))
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, replay(pipe, recorder, f))
	assert.True(t, recorder.IsActive(), "replay should auto-start recording")

	records := pipe.Records()
	require.Len(t, records, 1)
	assert.Greater(t, records[0].MeanVelocity, 0.0)
}

func TestReplayRejectsMalformedLine(t *testing.T) {
	cam, err := calibration.New(100, 250, 60, 1080)
	require.NoError(t, err)

	recorder := session.NewRecordingController()
	pipe := session.NewPipeline(config.MustLoadDefaultConfig(), cam, recorder)
	require.NoError(t, pipe.SetExercise("Back Squat"))

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Error(t, replay(pipe, recorder, f))
}
