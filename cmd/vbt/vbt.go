// Command vbt replays a recorded pose log through the validation and rep
// detection pipeline, prints the per-rep velocity log, and optionally
// persists the session and renders a review chart.
//
// The pose log is JSONL: one frame per line, {"t_ms": 0, "keypoints":
// [{"name": "left_hip", "x": 0.45, "y": 0.52, "score": 0.93}, ...]}. A
// line with no keypoints replays a dropped detection.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/barbell-data/velocity.coach/internal/calibration"
	"github.com/barbell-data/velocity.coach/internal/config"
	"github.com/barbell-data/velocity.coach/internal/engine/session"
	"github.com/barbell-data/velocity.coach/internal/monitoring"
	"github.com/barbell-data/velocity.coach/internal/pose"
	"github.com/barbell-data/velocity.coach/internal/report"
	storage "github.com/barbell-data/velocity.coach/internal/storage/sqlite"
	"github.com/barbell-data/velocity.coach/internal/units"
	"github.com/barbell-data/velocity.coach/internal/version"
)

var (
	logPath      = flag.String("log", "", "Pose log to replay (JSONL)")
	exerciseName = flag.String("exercise", "Back Squat", "Exercise name")
	trackName    = flag.String("track", "", "Tracking point landmark (defaults to the exercise recommendation)")
	loadKg       = flag.Float64("load", 0, "Bar load in kg")
	distanceCm   = flag.Float64("distance", 250, "Camera-to-subject distance in cm")
	heightCm     = flag.Float64("height", 100, "Camera height in cm")
	fovDegrees   = flag.Float64("fov", 60, "Vertical field of view in degrees")
	frameHeight  = flag.Float64("frame-height", 1080, "Frame height in pixels")
	configPath   = flag.String("config", "", "Tuning config JSON (defaults to the built-in tuning)")
	dbPath       = flag.String("db", "", "SQLite database to store the session (optional)")
	chartPath    = flag.String("chart", "", "HTML velocity chart output path (optional)")
	unit         = flag.String("units", units.MPS, "Display units: "+units.GetValidUnitsString())
	verbose      = flag.Bool("verbose", false, "Log per-frame pipeline diagnostics")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// logFrame is one line of the pose log.
type logFrame struct {
	TMs       int64 `json:"t_ms"`
	Keypoints []struct {
		Name  string  `json:"name"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Score float64 `json:"score"`
	} `json:"keypoints"`
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("vbt %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *logPath == "" {
		log.Fatal("missing -log: nothing to replay")
	}
	if !units.IsValid(*unit) {
		log.Fatalf("invalid units %q, valid units are: %s", *unit, units.GetValidUnitsString())
	}
	if !*verbose {
		monitoring.SetLogger(nil)
	}

	// All Get* accessors fall back to the canonical defaults, so the empty
	// config replays with stock tuning.
	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	cam, err := calibration.New(*heightCm, *distanceCm, *fovDegrees, *frameHeight)
	if err != nil {
		log.Fatalf("invalid camera setup: %v", err)
	}

	recorder := session.NewRecordingController()
	pipe := session.NewPipeline(tuning, cam, recorder)
	if err := pipe.SetExercise(*exerciseName); err != nil {
		log.Fatalf("unknown exercise: %v", err)
	}

	point := pipe.Exercise().RecommendedPoint
	if *trackName != "" {
		point = pose.KeypointName(*trackName)
	}
	if err := pipe.SetTrackingPoint(point, 0.5, 0.5); err != nil {
		log.Fatalf("invalid tracking point: %v", err)
	}

	f, err := os.Open(*logPath)
	if err != nil {
		log.Fatalf("failed to open pose log: %v", err)
	}
	defer f.Close()

	if err := replay(pipe, recorder, f); err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	records := pipe.Records()
	fmt.Print(report.FormatSummary(report.Summarize(records), *unit))

	if *chartPath != "" && len(records) > 0 {
		out, err := os.Create(*chartPath)
		if err != nil {
			log.Fatalf("failed to create chart file: %v", err)
		}
		defer out.Close()
		if err := report.WriteVelocityChart(out, *exerciseName, *loadKg, records); err != nil {
			log.Fatalf("failed to render chart: %v", err)
		}
		log.Printf("wrote velocity chart to %s", *chartPath)
	}

	if *dbPath != "" && len(records) > 0 {
		db, err := storage.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open session database: %v", err)
		}
		defer db.Close()

		store, err := storage.NewSessionStore(db)
		if err != nil {
			log.Fatalf("failed to init session store: %v", err)
		}
		if err := store.SaveSession(&storage.Session{
			SessionID: pipe.SessionID(),
			Exercise:  *exerciseName,
			LoadKg:    *loadKg,
		}, records); err != nil {
			log.Fatalf("failed to save session: %v", err)
		}
		log.Printf("saved session %s (%d reps) to %s", pipe.SessionID(), len(records), *dbPath)
	}
}

// replay feeds every frame of the pose log through the pipeline. Recording
// starts automatically the first time the session reaches the tracking
// stage, mirroring a coach pressing record as soon as the lifter is locked
// on.
func replay(pipe *session.Pipeline, recorder *session.RecordingController, f *os.File) error {
	base := time.Unix(0, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var lf logFrame
		if err := json.Unmarshal(raw, &lf); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		frame, err := buildFrame(lf, base)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		res := pipe.ProcessFrame(frame, base.Add(time.Duration(lf.TMs)*time.Millisecond))
		monitoring.Logf("frame %d: stage=%s velocity=%.3f %s", line, res.Stage, res.Velocity, res.Message)

		if res.Stage == session.StageTracking && !recorder.IsActive() {
			recorder.Start()
			monitoring.Logf("frame %d: recording started", line)
		}
		if res.RepCompleted {
			fmt.Printf("rep %d: mean=%.2f %s peak=%.2f %s drop=%.1f%%\n",
				res.Rep.RepNumber,
				units.ConvertSpeed(res.Rep.MeanVelocity, *unit), units.Label(*unit),
				units.ConvertSpeed(res.Rep.PeakVelocity, *unit), units.Label(*unit),
				res.Rep.VelocityDropPercent)
		}
	}
	return scanner.Err()
}

func buildFrame(lf logFrame, base time.Time) (*pose.Frame, error) {
	if len(lf.Keypoints) == 0 {
		return nil, nil
	}
	kps := make([]pose.Keypoint, len(lf.Keypoints))
	for i, kp := range lf.Keypoints {
		kps[i] = pose.Keypoint{
			Name:  pose.KeypointName(kp.Name),
			X:     kp.X,
			Y:     kp.Y,
			Score: kp.Score,
		}
	}
	return pose.NewFrame(kps, base.Add(time.Duration(lf.TMs)*time.Millisecond))
}
