package ranking

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/luminance"
	"github.com/banshee-data/scenetrace/internal/monitoring"
	"github.com/banshee-data/scenetrace/internal/timeutil"
)

// Options configures a Controller.
type Options struct {
	Scene string
	Sinks []Sink
	Clock timeutil.Clock
	// Luminance reduces a frame to a scalar. Defaults to luminance.Frame.
	Luminance func(image.Image) float64

	// DebugDir, when set, receives a grayscale PNG of the first frame
	// captured for each light.
	DebugDir string
	FS       fsutil.FileSystem
}

// Controller runs one light ranking at a time. It is driven by Tick once per
// frame, before the replay engine's own tick.
type Controller struct {
	frames FrameSource
	replay Replay
	opts   Options

	running bool
	run     *Run
	lights  []Light
	prev    []bool
	active  int
	samples []float64
	rows    []Row
}

// NewController creates an idle controller.
func NewController(frames FrameSource, replay Replay, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.Luminance == nil {
		opts.Luminance = luminance.Frame
	}
	if opts.FS == nil {
		opts.FS = fsutil.OSFileSystem{}
	}
	return &Controller{frames: frames, replay: replay, opts: opts}
}

// Running reports whether a ranking is in progress.
func (c *Controller) Running() bool {
	return c.running
}

// Start snapshots and disables every light, enables the first one and
// starts the first replay pass at frame.
func (c *Controller) Start(frame uint64, lights []Light) error {
	if c.running {
		return ErrAlreadyRunning
	}
	if len(lights) == 0 {
		return ErrNoLights
	}
	if c.replay.Active() {
		return ErrReplayBusy
	}

	c.lights = lights
	c.prev = make([]bool, len(lights))
	for i, l := range lights {
		c.prev[i] = l.Enabled()
		l.SetEnabled(false)
	}
	c.run = &Run{
		ID:        uuid.New(),
		Scene:     c.opts.Scene,
		StartedAt: c.opts.Clock.Now(),
		Lights:    len(lights),
	}
	c.rows = nil
	c.running = true

	monitoring.Opsf("light ranking %s started: scene=%s lights=%d", c.run.ID, c.opts.Scene, len(lights))
	if err := c.beginLight(frame, 0); err != nil {
		c.abort(frame)
		return err
	}
	return nil
}

// Tick samples one frame while a replay pass plays. Once the pass has
// ended it records the light's average and moves to the next light, or
// finishes the run and publishes it. A capture failure aborts the run.
func (c *Controller) Tick(frame uint64) error {
	if !c.running {
		return nil
	}

	if c.replay.Active() {
		img, err := c.frames.CaptureFrame()
		if err != nil {
			c.abort(frame)
			return fmt.Errorf("failed to capture frame for light %d: %w", c.active, err)
		}
		if len(c.samples) == 0 {
			c.dumpDebugFrame(img)
		}
		c.samples = append(c.samples, c.opts.Luminance(img))
		return nil
	}

	c.finishLight()
	if next := c.active + 1; next < len(c.lights) {
		if err := c.beginLight(frame, next); err != nil {
			c.abort(frame)
			return err
		}
		return nil
	}
	return c.stop()
}

// Abort ends a run early without publishing. Lights are restored and a
// replay pass in flight is stopped.
func (c *Controller) Abort(frame uint64) {
	if !c.running {
		return
	}
	c.abort(frame)
}

func (c *Controller) beginLight(frame uint64, idx int) error {
	c.active = idx
	c.samples = c.samples[:0]
	c.lights[idx].SetEnabled(true)
	if err := c.replay.Start(frame); err != nil {
		return fmt.Errorf("failed to start replay for light %d: %w", idx, err)
	}
	monitoring.Tracef("light ranking: light %d/%d on (%s)", idx, len(c.lights), c.lights[idx].Path())
	return nil
}

func (c *Controller) finishLight() {
	l := c.lights[c.active]
	l.SetEnabled(false)

	n := len(c.samples)
	if n == 0 {
		monitoring.Opsf("light ranking: light %d (%s) captured no frames, skipping", c.active, l.Path())
		return
	}
	avg := stat.Mean(c.samples, nil)
	var sd float64
	if n > 1 {
		sd = stat.StdDev(c.samples, nil)
	}
	c.rows = append(c.rows, Row{
		Path:    l.Path(),
		Average: avg,
		StdDev:  sd,
		Frames:  n,
		Index:   c.active,
	})
	monitoring.Diagf("Average luminance for light [%d/%d]: %g (%s)", c.active, len(c.lights), avg, l.Path())
}

func (c *Controller) stop() error {
	sortRows(c.rows)
	run := c.run
	run.Rows = c.rows
	run.FinishedAt = c.opts.Clock.Now()
	c.restore()

	var errs []error
	for _, s := range c.opts.Sinks {
		if err := s.Publish(run); err != nil {
			monitoring.Opsf("light ranking %s: publish failed: %v", run.ID, err)
			errs = append(errs, err)
		}
	}
	monitoring.Opsf("light ranking %s finished: ranked=%d/%d", run.ID, len(run.Rows), run.Lights)
	return errors.Join(errs...)
}

func (c *Controller) abort(frame uint64) {
	if c.replay.Active() {
		c.replay.Stop(frame)
	}
	monitoring.Opsf("light ranking %s aborted at light %d/%d", c.run.ID, c.active, len(c.lights))
	c.restore()
}

// restore puts every light back to its pre-run state and clears the run.
func (c *Controller) restore() {
	for i, l := range c.lights {
		l.SetEnabled(c.prev[i])
	}
	c.running = false
	c.run = nil
	c.lights = nil
	c.prev = nil
	c.samples = nil
	c.rows = nil
	c.active = 0
}

func (c *Controller) dumpDebugFrame(img image.Image) {
	if c.opts.DebugDir == "" {
		return
	}
	name := filepath.Join(c.opts.DebugDir, fmt.Sprintf("frame_%s_light%d.png", c.opts.Scene, c.active))
	if err := c.opts.FS.MkdirAll(c.opts.DebugDir, 0755); err != nil {
		monitoring.Opsf("light ranking: debug frame: %v", err)
		return
	}
	w, err := c.opts.FS.Create(name)
	if err != nil {
		monitoring.Opsf("light ranking: debug frame: %v", err)
		return
	}
	defer w.Close()
	if err := luminance.WriteGrayscalePNG(w, img); err != nil {
		monitoring.Opsf("light ranking: debug frame: %v", err)
	}
}
