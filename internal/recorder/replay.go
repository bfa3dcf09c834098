package recorder

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/monitoring"
	"github.com/banshee-data/scenetrace/internal/pose"
	"github.com/banshee-data/scenetrace/internal/trace"
)

// Status is the outcome of a replay tick.
type Status int

const (
	// Continue means events remain for later frames.
	Continue Status = iota
	// Finished means the session ended during this tick (or was not running).
	Finished
)

func (s Status) String() string {
	if s == Finished {
		return "finished"
	}
	return "continue"
}

// EndReason records why a replay ended.
type EndReason int

const (
	EndNone EndReason = iota
	EndTerminator
	EndExhausted
	EndDecodeError
	EndStopped
)

func (r EndReason) String() string {
	switch r {
	case EndTerminator:
		return "terminator"
	case EndExhausted:
		return "exhausted"
	case EndDecodeError:
		return "decode error"
	case EndStopped:
		return "stopped"
	}
	return "none"
}

// ReplayResult summarises the most recent replay.
type ReplayResult struct {
	Reason  EndReason
	Applied int
	Skipped int
	// Frame is the relative frame at which the session ended.
	Frame uint64
	Err   error
}

// ReplaySession applies a trace to a registry, frame by frame.
type ReplaySession struct {
	fs   fsutil.FileSystem
	path string

	src        io.ReadCloser
	reader     *trace.Reader
	startFrame uint64
	active     bool

	result ReplayResult
}

// NewReplaySession creates an idle replay session reading path.
func NewReplaySession(fs fsutil.FileSystem, path string) *ReplaySession {
	return &ReplaySession{fs: fs, path: path}
}

// Path returns the trace file this session reads.
func (s *ReplaySession) Path() string {
	return s.path
}

// Active reports whether a replay is in progress.
func (s *ReplaySession) Active() bool {
	return s.active
}

// Result returns the summary of the last replay. It is reset by Start.
func (s *ReplaySession) Result() ReplayResult {
	return s.result
}

// Start opens the trace and anchors relative frame 0 at frame.
func (s *ReplaySession) Start(frame uint64) error {
	if s.active {
		return fmt.Errorf("replay %s: %w", s.path, ErrAlreadyActive)
	}
	src, err := s.fs.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}

	s.src = src
	s.reader = trace.NewReader(src)
	s.startFrame = frame
	s.active = true
	s.result = ReplayResult{}

	monitoring.Opsf("replay started: path=%s frame=%d", s.path, frame)
	return nil
}

// Tick applies every buffered or upcoming event whose relative frame has
// been reached. Several events may share a frame, so one tick can apply
// many. Events for unknown entities are logged and skipped.
func (s *ReplaySession) Tick(frame uint64, reg *pose.Registry) Status {
	if !s.active {
		return Finished
	}
	if frame < s.startFrame {
		monitoring.Opsf("replay tick at frame %d before start %d: %v", frame, s.startFrame, ErrClockRewound)
		return Continue
	}
	target := frame - s.startFrame

	for {
		ev, err := s.reader.Peek()
		switch {
		case errors.Is(err, io.EOF):
			s.finish(target, EndExhausted, nil)
			return Finished
		case err != nil:
			monitoring.Opsf("replay %s: %v", s.path, err)
			s.finish(target, EndDecodeError, err)
			return Finished
		}

		if ev.Frame > target {
			return Continue
		}
		if ev.IsEnd() {
			s.reader.Consume()
			s.finish(target, EndTerminator, nil)
			return Finished
		}

		if err := apply(ev, reg); err != nil {
			monitoring.Opsf("replay %s line %d: %v", s.path, s.reader.Line(), err)
			s.result.Skipped++
		} else {
			s.result.Applied++
			monitoring.Tracef("replay frame=%d entity=%d %s", ev.Frame, ev.EntityID, ev.Kind)
		}
		s.reader.Consume()
	}
}

// Stop ends an active replay early. It is a no-op when idle.
func (s *ReplaySession) Stop(frame uint64) {
	if !s.active {
		return
	}
	var rel uint64
	if frame >= s.startFrame {
		rel = frame - s.startFrame
	}
	s.finish(rel, EndStopped, nil)
}

func (s *ReplaySession) finish(rel uint64, reason EndReason, err error) {
	if cerr := s.src.Close(); cerr != nil {
		monitoring.Opsf("replay %s: failed to close trace: %v", s.path, cerr)
	}
	s.src = nil
	s.reader = nil
	s.active = false
	s.result.Reason = reason
	s.result.Frame = rel
	s.result.Err = err

	monitoring.Diagf("replay finished: path=%s reason=%s frame=%d applied=%d skipped=%d",
		s.path, reason, rel, s.result.Applied, s.result.Skipped)
}

func apply(ev trace.Event, reg *pose.Registry) error {
	e, ok := reg.Get(ev.EntityID)
	if !ok {
		return fmt.Errorf("%s event for entity %d: %w", ev.Kind, ev.EntityID, ErrUnknownEntity)
	}
	switch ev.Kind {
	case trace.KindPosition:
		e.Transform.Position = ev.Position
	case trace.KindRotation:
		e.Transform.Rotation = ev.Rotation
	default:
		return fmt.Errorf("cannot apply %s event", ev.Kind)
	}
	return nil
}
