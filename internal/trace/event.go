// Package trace defines the textual pose trace: one event per line,
// "frame,entityId,kind[,payload...]", frames relative to session start.
package trace

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/banshee-data/scenetrace/internal/pose"
)

// FileExtension is the extension of trace files.
const FileExtension = ".csv"

// Kind identifies the payload of an event.
type Kind uint8

const (
	KindPosition Kind = iota + 1
	KindRotation
	KindEnd
)

// Token returns the on-disk token for k.
func (k Kind) Token() string {
	switch k {
	case KindPosition:
		return "pos"
	case KindRotation:
		return "rot"
	case KindEnd:
		return "end"
	}
	return ""
}

func (k Kind) String() string {
	if t := k.Token(); t != "" {
		return t
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// fieldCount is the number of comma separated fields of a line of kind k.
func (k Kind) fieldCount() int {
	switch k {
	case KindPosition:
		return 6
	case KindRotation:
		return 7
	}
	return 3
}

func parseKind(tok string) (Kind, bool) {
	switch tok {
	case "pos":
		return KindPosition, true
	case "rot":
		return KindRotation, true
	case "end":
		return KindEnd, true
	}
	return 0, false
}

// Event is one line of a trace. Only the payload field matching Kind is
// meaningful.
type Event struct {
	Frame    uint64
	EntityID uint32
	Kind     Kind
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// PositionEvent builds a position event.
func PositionEvent(frame uint64, id uint32, p mgl32.Vec3) Event {
	return Event{Frame: frame, EntityID: id, Kind: KindPosition, Position: p}
}

// RotationEvent builds a rotation event.
func RotationEvent(frame uint64, id uint32, q mgl32.Quat) Event {
	return Event{Frame: frame, EntityID: id, Kind: KindRotation, Rotation: q}
}

// EndEvent builds the session terminator for frame.
func EndEvent(frame uint64) Event {
	return Event{Frame: frame, EntityID: pose.TerminatorID, Kind: KindEnd}
}

// IsEnd reports whether e terminates the trace.
func (e Event) IsEnd() bool {
	return e.Kind == KindEnd
}

// Path returns the trace file for scene inside dir.
func Path(dir, scene string) string {
	return filepath.Join(dir, "trace_"+scene+FileExtension)
}
