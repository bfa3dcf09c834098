package recorder

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/monitoring"
	"github.com/banshee-data/scenetrace/internal/pose"
	"github.com/banshee-data/scenetrace/internal/trace"
)

// CaptureSession writes pose changes of a registry to a trace file.
type CaptureSession struct {
	fs   fsutil.FileSystem
	path string

	sink       io.WriteCloser
	writer     *trace.Writer
	startFrame uint64
	active     bool
}

// NewCaptureSession creates an idle capture session writing to path.
func NewCaptureSession(fs fsutil.FileSystem, path string) *CaptureSession {
	return &CaptureSession{fs: fs, path: path}
}

// Path returns the trace file this session writes.
func (c *CaptureSession) Path() string {
	return c.path
}

// Active reports whether a capture is in progress.
func (c *CaptureSession) Active() bool {
	return c.active
}

// Start truncates the trace file and anchors relative frame 0 at frame.
// Every entity in reg is marked dirty so the first tick records a full
// keyframe of the scene.
func (c *CaptureSession) Start(frame uint64, reg *pose.Registry) error {
	if c.active {
		return fmt.Errorf("capture %s: %w", c.path, ErrAlreadyActive)
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	sink, err := c.fs.Create(c.path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}

	c.sink = sink
	c.writer = trace.NewWriter(sink)
	c.startFrame = frame
	c.active = true
	reg.Touch()

	monitoring.Opsf("capture started: path=%s frame=%d entities=%d", c.path, frame, reg.Len())
	return nil
}

// Tick writes one line per changed position and one per changed rotation,
// visiting entities in ascending id order. A write failure ends the
// capture and is returned.
func (c *CaptureSession) Tick(frame uint64, reg *pose.Registry) error {
	if !c.active {
		return nil
	}
	rel, err := c.relative(frame)
	if err != nil {
		return err
	}

	var writeErr error
	reg.Each(func(e *pose.Entity) {
		if writeErr != nil {
			return
		}
		if p, ok := e.PositionIfChanged(); ok {
			writeErr = c.writer.Write(trace.PositionEvent(rel, e.ID, p))
		}
		if writeErr != nil {
			return
		}
		if q, ok := e.RotationIfChanged(); ok {
			writeErr = c.writer.Write(trace.RotationEvent(rel, e.ID, q))
		}
	})
	if writeErr != nil {
		monitoring.Opsf("capture aborted at relative frame %d: %v", rel, writeErr)
		c.close()
		return writeErr
	}
	return nil
}

// Stop writes the end event and closes the trace. It is a no-op when idle.
func (c *CaptureSession) Stop(frame uint64) error {
	if !c.active {
		return nil
	}
	rel, err := c.relative(frame)
	if err != nil {
		monitoring.Opsf("capture stop: %v", err)
	}
	// The end line may not precede the events already written.
	if last := c.writer.LastFrame(); err != nil || rel < last {
		rel = last
	}

	writeErr := c.writer.Write(trace.EndEvent(rel))
	count := c.writer.Count()
	closeErr := c.close()

	if writeErr != nil {
		return fmt.Errorf("failed to terminate trace: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close trace: %w", closeErr)
	}
	monitoring.Opsf("capture stopped: path=%s frames=%d events=%d", c.path, rel+1, count)
	return nil
}

func (c *CaptureSession) relative(frame uint64) (uint64, error) {
	if frame < c.startFrame {
		return 0, fmt.Errorf("capture frame %d before start %d: %w", frame, c.startFrame, ErrClockRewound)
	}
	return frame - c.startFrame, nil
}

func (c *CaptureSession) close() error {
	err := c.sink.Close()
	c.sink = nil
	c.writer = nil
	c.active = false
	return err
}
