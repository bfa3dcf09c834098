// Package pose holds tracked scene entities, their transforms, and the
// per-frame change detection used when recording trajectories.
package pose

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is the recorded part of an entity's pose.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// IdentityTransform is the origin with no rotation.
func IdentityTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent()}
}

// Entity is a tracked scene object. Transform is mutated directly by scene
// code and by replay; Sample folds the current value into the trackers.
type Entity struct {
	ID        uint32
	Name      string
	Parent    *Entity
	Transform Transform

	pos Tracker[mgl32.Vec3]
	rot Tracker[mgl32.Quat]
}

// NewEntity creates an entity at the identity transform.
func NewEntity(id uint32, name string, parent *Entity) *Entity {
	return &Entity{ID: id, Name: name, Parent: parent, Transform: IdentityTransform()}
}

// Sample records the entity's current transform for change detection.
// Call once per frame after the scene has moved.
func (e *Entity) Sample() {
	e.pos.Set(e.Transform.Position)
	e.rot.Set(e.Transform.Rotation)
}

// PositionIfChanged returns the sampled position if it changed since the
// last call.
func (e *Entity) PositionIfChanged() (mgl32.Vec3, bool) {
	return e.pos.Take()
}

// RotationIfChanged returns the sampled rotation if it changed since the
// last call.
func (e *Entity) RotationIfChanged() (mgl32.Quat, bool) {
	return e.rot.Take()
}

// Touch forces the next PositionIfChanged/RotationIfChanged to report the
// sampled values.
func (e *Entity) Touch() {
	e.pos.Touch()
	e.rot.Touch()
}

// Path returns the slash separated names from the scene root, e.g.
// "/Building/Lobby/Lamp".
func (e *Entity) Path() string {
	var names []string
	for n := e; n != nil; n = n.Parent {
		names = append(names, n.Name)
	}
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(names[i])
	}
	return b.String()
}
