package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/scenetrace/internal/pose"
)

// ErrMalformed is wrapped by every DecodeError.
var ErrMalformed = errors.New("malformed trace line")

// DecodeError describes a trace line that could not be parsed.
type DecodeError struct {
	Line  int // 1-based; 0 when decoding outside a Reader
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("trace line %d: bad %s field: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("trace: bad %s field: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// AppendEvent appends the encoded form of ev (without newline) to b.
// Floats use the shortest text that parses back to the same float32.
func AppendEvent(b []byte, ev Event) []byte {
	b = strconv.AppendUint(b, ev.Frame, 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(ev.EntityID), 10)
	b = append(b, ',')
	b = append(b, ev.Kind.Token()...)
	switch ev.Kind {
	case KindPosition:
		b = appendFloats(b, ev.Position[0], ev.Position[1], ev.Position[2])
	case KindRotation:
		b = appendFloats(b, ev.Rotation.V[0], ev.Rotation.V[1], ev.Rotation.V[2], ev.Rotation.W)
	}
	return b
}

func appendFloats(b []byte, vs ...float32) []byte {
	for _, v := range vs {
		b = append(b, ',')
		b = strconv.AppendFloat(b, float64(v), 'g', -1, 32)
	}
	return b
}

// Encode returns the encoded line for ev without a trailing newline.
func Encode(ev Event) string {
	return string(AppendEvent(nil, ev))
}

// Decode parses a single trace line. A trailing "\r" is ignored.
func Decode(line string) (Event, error) {
	var ev Event
	fields := strings.Split(strings.TrimSuffix(line, "\r"), ",")
	if len(fields) < 3 {
		return ev, &DecodeError{Field: "kind", Err: fmt.Errorf("want at least 3 fields, got %d", len(fields))}
	}

	frame, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return ev, &DecodeError{Field: "frame", Err: err}
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return ev, &DecodeError{Field: "entity id", Err: err}
	}
	kind, ok := parseKind(fields[2])
	if !ok {
		return ev, &DecodeError{Field: "kind", Err: fmt.Errorf("unknown kind %q", fields[2])}
	}
	// Id 0 is left to the registry lookup; only an end line has a fixed id.
	if kind == KindEnd && id != uint64(pose.TerminatorID) {
		return ev, &DecodeError{Field: "entity id", Err: fmt.Errorf("end event with id %d", id)}
	}
	if want := kind.fieldCount(); len(fields) != want {
		return ev, &DecodeError{Field: "payload", Err: fmt.Errorf("%s wants %d fields, got %d", kind, want, len(fields))}
	}

	vals := make([]float32, 0, 4)
	for i, f := range fields[3:] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return ev, &DecodeError{Field: "xyzw"[i : i+1], Err: err}
		}
		vals = append(vals, float32(v))
	}

	ev.Frame = frame
	ev.EntityID = uint32(id)
	ev.Kind = kind
	switch kind {
	case KindPosition:
		ev.Position[0], ev.Position[1], ev.Position[2] = vals[0], vals[1], vals[2]
	case KindRotation:
		ev.Rotation.V[0], ev.Rotation.V[1], ev.Rotation.V[2], ev.Rotation.W = vals[0], vals[1], vals[2], vals[3]
	}
	return ev, nil
}
