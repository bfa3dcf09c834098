package trace

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"position", PositionEvent(0, 1, mgl32.Vec3{1, 2, 3}), "0,1,pos,1,2,3"},
		{"rotation", RotationEvent(0, 1, mgl32.QuatIdent()), "0,1,rot,0,0,0,1"},
		{"end", EndEvent(1), "1,4294967295,end"},
		{"fraction", PositionEvent(12, 9, mgl32.Vec3{0.1, -2.5, 1e-7}), "12,9,pos,0.1,-2.5,1e-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.ev); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	events := []Event{
		PositionEvent(0, 1, mgl32.Vec3{1, 2, 3}),
		RotationEvent(0, 1, mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0})),
		PositionEvent(0, 2, mgl32.Vec3{math.MaxFloat32, -math.SmallestNonzeroFloat32, 1.0 / 3}),
		PositionEvent(3, 1, mgl32.Vec3{0.1, 0.2, 0.3}),
		RotationEvent(3, 2, mgl32.Quat{W: 0.5, V: mgl32.Vec3{0.5, 0.5, 0.5}}),
		EndEvent(4),
	}

	var b strings.Builder
	w := NewWriter(&b)
	for _, ev := range events {
		if err := w.Write(ev); err != nil {
			t.Fatalf("Write(%v) error = %v", ev, err)
		}
	}

	got, err := ReadAll(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if diff := cmp.Diff(events, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode("0,1,rot,0,0,0,1\r")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := RotationEvent(0, 1, mgl32.QuatIdent())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ReservedIDIsWellFormed(t *testing.T) {
	// Id 0 never names a registered entity; rejecting it is the replay's job.
	got, err := Decode("0,0,pos,9,9,9")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(PositionEvent(0, 0, mgl32.Vec3{9, 9, 9}), got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"empty", "", "kind"},
		{"too few fields", "0,1", "kind"},
		{"non numeric frame", "x,1,pos,1,2,3", "frame"},
		{"negative frame", "-1,1,pos,1,2,3", "frame"},
		{"non numeric id", "0,abc,pos,1,2,3", "entity id"},
		{"id overflow", "0,4294967296,pos,1,2,3", "entity id"},
		{"empty kind", "0,1,,1,2,3", "kind"},
		{"unknown kind", "0,1,scale,1,2,3", "kind"},
		{"short position", "0,1,pos,1,2", "payload"},
		{"long position", "0,1,pos,1,2,3,4", "payload"},
		{"short rotation", "0,1,rot,0,0,1", "payload"},
		{"end with payload", "3,4294967295,end,1", "payload"},
		{"end with entity id", "0,7,end", "entity id"},
		{"end with id 0", "2,0,end", "entity id"},
		{"bad float", "0,1,pos,1,two,3", "y"},
		{"bad w", "0,1,rot,0,0,0,w", "w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.line)
			if err == nil {
				t.Fatalf("Decode(%q) expected error", tt.line)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error %v does not wrap ErrMalformed", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not *DecodeError", err)
			}
			if de.Field != tt.field {
				t.Errorf("Field = %q, want %q", de.Field, tt.field)
			}
		})
	}
}
