// Package monitoring routes scenetrace log output.
//
// Sessions write to one of three streams, each off unless given a writer:
// Opsf for starts, stops and failures an operator should see; Diagf for
// per-run summaries such as each light's average; Tracef for per-frame
// and per-event detail. Logf is the plain command-line logger.
package monitoring

import (
	"io"
	"log"
	"sync/atomic"
)

const logPrefix = "[scenetrace] "

// LogWriters selects the destination of each stream. A nil writer turns
// that stream off.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// stream is a logger that can be swapped while sessions are logging.
type stream struct {
	l atomic.Pointer[log.Logger]
}

func (s *stream) reset(w io.Writer) {
	if w == nil {
		s.l.Store(nil)
		return
	}
	s.l.Store(log.New(w, logPrefix, log.LstdFlags|log.Lmicroseconds))
}

func (s *stream) printf(format string, args []interface{}) {
	if l := s.l.Load(); l != nil {
		l.Printf(format, args...)
	}
}

var opsStream, diagStream, traceStream stream

// Logf is used by the command for user-facing progress. SetLogger swaps it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf; nil silences it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	Logf = f
}

// SetLogWriters points the three streams at w.
func SetLogWriters(w LogWriters) {
	opsStream.reset(w.Ops)
	diagStream.reset(w.Diag)
	traceStream.reset(w.Trace)
}

// Opsf logs session lifecycle and failures.
func Opsf(format string, args ...interface{}) { opsStream.printf(format, args) }

// Diagf logs per-run diagnostics.
func Diagf(format string, args ...interface{}) { diagStream.printf(format, args) }

// Tracef logs per-frame telemetry.
func Tracef(format string, args ...interface{}) { traceStream.printf(format, args) }
