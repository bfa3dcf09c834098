package main

import (
	"fmt"
	"io"

	"github.com/banshee-data/scenetrace/internal/config"
	"github.com/banshee-data/scenetrace/internal/driver"
	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/pose"
	"github.com/banshee-data/scenetrace/internal/rankdb"
	"github.com/banshee-data/scenetrace/internal/ranking"
	"github.com/banshee-data/scenetrace/internal/recorder"
	"github.com/banshee-data/scenetrace/internal/report"
	"github.com/banshee-data/scenetrace/internal/sim"
	"github.com/banshee-data/scenetrace/internal/timeutil"
	"github.com/banshee-data/scenetrace/internal/trace"
)

// app wires the demo scene to a driver according to cfg.
type app struct {
	cfg    *config.Config
	scene  *sim.Scene
	driver *driver.Driver
	clock  *timeutil.FrameCounter
	db     *rankdb.DB
	runs   []*ranking.Run
}

func newApp(cfg *config.Config, fs fsutil.FileSystem) (*app, error) {
	scene, err := sim.NewDemoScene(cfg.GetScene())
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	renderer, err := sim.NewRenderer(scene, cfg.GetFrameWidth(), cfg.GetFrameHeight())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, scene: scene, clock: timeutil.NewFrameCounter(0)}

	sinks := []ranking.Sink{
		ranking.SinkFunc(func(run *ranking.Run) error {
			a.runs = append(a.runs, run)
			return nil
		}),
		report.CSVSink{FS: fs, Dir: cfg.GetReportDir()},
	}
	if cfg.GetChartPNG() || cfg.GetChartHTML() {
		sinks = append(sinks, report.ChartSink{
			FS:   fs,
			Dir:  cfg.GetReportDir(),
			PNG:  cfg.GetChartPNG(),
			HTML: cfg.GetChartHTML(),
		})
	}
	if path := cfg.GetDatabasePath(); path != "" {
		db, err := rankdb.Open(path)
		if err != nil {
			return nil, err
		}
		a.db = db
		sinks = append(sinks, db)
	}

	tracePath := trace.Path(cfg.GetTraceDir(), cfg.GetScene())
	capture := recorder.NewCaptureSession(fs, tracePath)
	replay := recorder.NewReplaySession(fs, tracePath)
	ranker := ranking.NewController(renderer, replay, ranking.Options{
		Scene:    cfg.GetScene(),
		Sinks:    sinks,
		DebugDir: cfg.GetDebugFrameDir(),
		FS:       fs,
	})
	a.driver = driver.New(scene.Registry, capture, replay, ranker, scene.RankingLights())
	return a, nil
}

func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// capture animates the scene for the configured number of frames while
// recording, then stops the capture on the next frame.
func (a *app) capture() error {
	d := a.driver
	d.Controls.Capture = true
	for i := 0; i < a.cfg.GetFrames(); i++ {
		f := a.clock.Frame()
		a.scene.Advance(f)
		d.Step(f)
		if !d.Capturing() {
			return fmt.Errorf("capture ended early at frame %d", f)
		}
		a.clock.Advance()
	}
	d.Controls.Capture = false
	d.Step(a.clock.Advance())
	return nil
}

// replay plays the trace to the end. limit bounds the number of steps.
func (a *app) replay(limit int) error {
	d := a.driver
	d.Controls.Replay = true
	d.Step(a.clock.Advance())
	if !d.Replaying() {
		return fmt.Errorf("replay did not start")
	}
	return a.runUntilIdle(limit)
}

// rank runs a full light ranking and returns the published run.
func (a *app) rank(limit int) (*ranking.Run, error) {
	d := a.driver
	n := len(a.runs)
	d.Controls.RankLights = true
	d.Step(a.clock.Advance())
	if !d.Ranking() {
		return nil, fmt.Errorf("light ranking did not start")
	}
	if err := a.runUntilIdle(limit); err != nil {
		return nil, err
	}
	if len(a.runs) == n {
		return nil, fmt.Errorf("light ranking ended without a result")
	}
	return a.runs[len(a.runs)-1], nil
}

func (a *app) runUntilIdle(limit int) error {
	for i := 0; i < limit; i++ {
		if a.driver.Idle() {
			return nil
		}
		a.driver.Step(a.clock.Advance())
	}
	return fmt.Errorf("still running after %d frames", limit)
}

// printPoses writes the world pose of every entity.
func (a *app) printPoses(w io.Writer) {
	a.scene.Registry.Each(func(e *pose.Entity) {
		t := sim.WorldTransform(e)
		p, q := t.Position, t.Rotation
		fmt.Fprintf(w, "%-20s pos=(%.3f, %.3f, %.3f) rot=(%.3f, %.3f, %.3f, %.3f)\n",
			e.Path(), p.X(), p.Y(), p.Z(), q.V.X(), q.V.Y(), q.V.Z(), q.W)
	})
}

func printRun(w io.Writer, run *ranking.Run) {
	fmt.Fprintf(w, "run %s scene=%s ranked=%d/%d\n", run.ID, run.Scene, len(run.Rows), run.Lights)
	for _, r := range run.Rows {
		fmt.Fprintf(w, "%3d  %-24s avg=%.6f sd=%.6f frames=%d\n", r.Rank, r.Path, r.Average, r.StdDev, r.Frames)
	}
}
