// Package recorder captures entity pose trajectories to a trace and replays
// them against a pose registry, both driven one frame at a time.
package recorder

import "errors"

var (
	// ErrAlreadyActive is returned by Start on a session that is running.
	// It means the orchestrator broke the one-session-at-a-time contract.
	ErrAlreadyActive = errors.New("session already active")
	// ErrUnknownEntity is reported when a trace event names an id that is
	// not in the registry.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrClockRewound is returned when a tick arrives with a frame before
	// the session start.
	ErrClockRewound = errors.New("frame precedes session start")
)
