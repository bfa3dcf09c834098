// Package timeutil provides the wall clock and frame clock abstractions used
// by sessions, so tests can control both.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the wall time used to stamp ranking runs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FrameCounter is the frame clock: a monotonically increasing tick that
// advances once per logical step.
type FrameCounter struct {
	frame uint64
}

// NewFrameCounter starts counting at first.
func NewFrameCounter(first uint64) *FrameCounter {
	return &FrameCounter{frame: first}
}

// Frame returns the current frame.
func (f *FrameCounter) Frame() uint64 {
	return f.frame
}

// Advance moves to the next frame and returns it.
func (f *FrameCounter) Advance() uint64 {
	f.frame++
	return f.frame
}
