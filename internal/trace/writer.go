package trace

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFrameRegression is returned when an event is older than the last one written.
	ErrFrameRegression = errors.New("event frame precedes previous event")
	// ErrTerminated is returned when writing after the end event.
	ErrTerminated = errors.New("trace already terminated")
)

// Writer appends events to a trace sink, one Write call per line.
type Writer struct {
	w         io.Writer
	buf       []byte
	lastFrame uint64
	count     int
	ended     bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 0, 64)}
}

// Write appends ev. Events must arrive in non-decreasing frame order and
// nothing may follow the end event.
func (tw *Writer) Write(ev Event) error {
	if tw.ended {
		return ErrTerminated
	}
	if tw.count > 0 && ev.Frame < tw.lastFrame {
		return fmt.Errorf("frame %d after %d: %w", ev.Frame, tw.lastFrame, ErrFrameRegression)
	}

	tw.buf = AppendEvent(tw.buf[:0], ev)
	tw.buf = append(tw.buf, '\n')
	if _, err := tw.w.Write(tw.buf); err != nil {
		return fmt.Errorf("failed to write trace line: %w", err)
	}

	tw.lastFrame = ev.Frame
	tw.count++
	tw.ended = ev.IsEnd()
	return nil
}

// LastFrame returns the frame of the most recent event, 0 before the first.
func (tw *Writer) LastFrame() uint64 {
	return tw.lastFrame
}

// Count returns the number of events written.
func (tw *Writer) Count() int {
	return tw.count
}

// Ended reports whether the end event has been written.
func (tw *Writer) Ended() bool {
	return tw.ended
}
