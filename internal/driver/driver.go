// Package driver runs capture, light ranking and replay from a single
// per-frame step, turning three boolean controls into session starts and
// stops.
package driver

import (
	"errors"

	"github.com/banshee-data/scenetrace/internal/monitoring"
	"github.com/banshee-data/scenetrace/internal/pose"
	"github.com/banshee-data/scenetrace/internal/ranking"
	"github.com/banshee-data/scenetrace/internal/recorder"
)

// Controls is the external control surface. It is sampled once per Step and
// compared with the previous sample, so only changes start or stop work.
type Controls struct {
	Capture    bool
	Replay     bool
	RankLights bool
}

// Driver owns the sessions of one scene and steps them in a fixed order:
// capture, then ranking, then replay.
type Driver struct {
	// Controls may be changed between steps.
	Controls Controls

	reg     *pose.Registry
	capture *recorder.CaptureSession
	replay  *recorder.ReplaySession
	ranker  *ranking.Controller
	lights  []ranking.Light

	prev Controls
}

// New creates a driver. The ranking controller must drive the same replay
// session passed here.
func New(reg *pose.Registry, capture *recorder.CaptureSession, replay *recorder.ReplaySession,
	ranker *ranking.Controller, lights []ranking.Light) *Driver {
	return &Driver{
		reg:     reg,
		capture: capture,
		replay:  replay,
		ranker:  ranker,
		lights:  lights,
	}
}

// Capturing reports whether a capture is in progress.
func (d *Driver) Capturing() bool { return d.capture.Active() }

// Replaying reports whether a replay pass is playing, including passes
// started by a ranking.
func (d *Driver) Replaying() bool { return d.replay.Active() }

// Ranking reports whether a light ranking is in progress.
func (d *Driver) Ranking() bool { return d.ranker.Running() }

// Idle reports whether nothing is running.
func (d *Driver) Idle() bool {
	return !d.Capturing() && !d.Replaying() && !d.Ranking()
}

// Step advances every session by one frame. The scene must already have
// moved to frame. Errors are logged, never returned: a failing session
// ends and its control is cleared while the others carry on.
func (d *Driver) Step(frame uint64) {
	cur := d.Controls
	d.reg.Sample()

	d.stepCapture(frame, cur)
	d.stepRanking(frame, cur)
	d.stepReplay(frame, cur)

	d.prev = d.Controls
}

func (d *Driver) stepCapture(frame uint64, cur Controls) {
	switch {
	case cur.Capture && !d.prev.Capture:
		if d.replay.Active() || d.ranker.Running() {
			monitoring.Opsf("capture refused at frame %d: replay or ranking in progress", frame)
			d.Controls.Capture = false
			return
		}
		if err := d.capture.Start(frame, d.reg); err != nil {
			logStartError("capture", frame, err)
			d.Controls.Capture = false
			return
		}
	case !cur.Capture && d.prev.Capture:
		if err := d.capture.Stop(frame); err != nil {
			monitoring.Opsf("capture stop at frame %d: %v", frame, err)
		}
		return
	}

	if !d.capture.Active() {
		return
	}
	if err := d.capture.Tick(frame, d.reg); err != nil {
		monitoring.Opsf("capture tick at frame %d: %v", frame, err)
	}
	if !d.capture.Active() {
		d.Controls.Capture = false
	}
}

func (d *Driver) stepRanking(frame uint64, cur Controls) {
	switch {
	case cur.RankLights && !d.prev.RankLights:
		if d.capture.Active() {
			monitoring.Opsf("light ranking refused at frame %d: capture in progress", frame)
			d.Controls.RankLights = false
			return
		}
		if err := d.ranker.Start(frame, d.lights); err != nil {
			logStartError("light ranking", frame, err)
			d.Controls.RankLights = false
		}
		// The first pass has not been applied yet; sampling starts next step.
		return
	case !cur.RankLights && d.prev.RankLights:
		d.ranker.Abort(frame)
		return
	}

	if !d.ranker.Running() {
		return
	}
	if err := d.ranker.Tick(frame); err != nil {
		monitoring.Opsf("light ranking at frame %d: %v", frame, err)
	}
	if !d.ranker.Running() {
		d.Controls.RankLights = false
	}
}

func (d *Driver) stepReplay(frame uint64, cur Controls) {
	switch {
	case cur.Replay && !d.prev.Replay:
		if reason := d.replayBlocked(); reason != "" {
			// The session may still be playing a ranking pass, so keep ticking.
			monitoring.Opsf("replay refused at frame %d: %s in progress", frame, reason)
			d.Controls.Replay = false
			break
		}
		if err := d.replay.Start(frame); err != nil {
			logStartError("replay", frame, err)
			d.Controls.Replay = false
			return
		}
	case !cur.Replay && d.prev.Replay:
		// A ranking pass owns the session; only the ranking may stop it.
		if !d.ranker.Running() {
			d.replay.Stop(frame)
		}
	}

	if d.replay.Tick(frame, d.reg) == recorder.Finished {
		d.Controls.Replay = false
	}
}

func (d *Driver) replayBlocked() string {
	switch {
	case d.capture.Active():
		return "capture"
	case d.ranker.Running():
		return "light ranking"
	}
	return ""
}

func logStartError(what string, frame uint64, err error) {
	if errors.Is(err, recorder.ErrAlreadyActive) || errors.Is(err, ranking.ErrAlreadyRunning) {
		monitoring.Opsf("contract breach: %s start at frame %d: %v", what, frame, err)
		return
	}
	monitoring.Opsf("%s failed to start at frame %d: %v", what, frame, err)
}
