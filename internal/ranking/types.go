// Package ranking ranks light sources by their contribution to scene
// brightness. Each light is isolated in turn while the same captured
// trajectory is replayed, and the mean frame luminance of each pass is
// compared.
package ranking

import (
	"cmp"
	"errors"
	"image"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("light ranking already running")
	// ErrNoLights is returned by Start when there is nothing to rank.
	ErrNoLights = errors.New("no lights to rank")
	// ErrReplayBusy is returned by Start when a replay is already playing.
	ErrReplayBusy = errors.New("replay already in progress")
)

// Light is a toggleable light source owned by the scene.
type Light interface {
	Enabled() bool
	SetEnabled(enabled bool)
	// Path is the slash separated name path of the light's entity.
	Path() string
}

// FrameSource renders and reads back the current frame.
type FrameSource interface {
	CaptureFrame() (image.Image, error)
}

// Replay is the replay engine as driven by the controller.
// *recorder.ReplaySession implements it.
type Replay interface {
	Active() bool
	Start(frame uint64) error
	Stop(frame uint64)
}

// Sink receives the finished ranking.
type Sink interface {
	Publish(run *Run) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(run *Run) error

// Publish calls f(run).
func (f SinkFunc) Publish(run *Run) error { return f(run) }

// Row is one ranked light.
type Row struct {
	Rank    int
	Path    string
	Average float64
	StdDev  float64
	Frames  int
	// Index is the light's position in the input order.
	Index int
}

// Run is a completed ranking.
type Run struct {
	ID         uuid.UUID
	Scene      string
	StartedAt  time.Time
	FinishedAt time.Time
	Lights     int
	Rows       []Row
}

// sortRows orders rows by descending average and assigns ranks. Equal
// averages keep their input order; there is no secondary key.
func sortRows(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Compare(b.Average, a.Average)
	})
	for i := range rows {
		rows[i].Rank = i
	}
}
