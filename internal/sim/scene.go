// Package sim is a small synthetic scene used by the scenetrace command: a
// hall with moving props and a handful of point lights, lit by a software
// renderer looking straight down at the floor.
package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/banshee-data/scenetrace/internal/pose"
	"github.com/banshee-data/scenetrace/internal/ranking"
)

// Light is a point light attached to a scene entity.
type Light struct {
	Entity    *pose.Entity
	Color     mgl32.Vec3
	Intensity float32
	// Range is the distance at which the light's contribution halves.
	Range float32

	enabled bool
}

// Enabled implements ranking.Light.
func (l *Light) Enabled() bool { return l.enabled }

// SetEnabled implements ranking.Light.
func (l *Light) SetEnabled(enabled bool) { l.enabled = enabled }

// Path implements ranking.Light.
func (l *Light) Path() string { return l.Entity.Path() }

// Occluder darkens the floor in a disc under an entity.
type Occluder struct {
	Entity *pose.Entity
	Radius float32
	// Shade is the fraction of light that passes through, 0..1.
	Shade float32
}

// Motion computes an entity's local transform for a frame.
type Motion func(frame uint64) pose.Transform

type mover struct {
	entity *pose.Entity
	motion Motion
}

// Scene owns the entity registry and the lights and props placed in it.
type Scene struct {
	Name      string
	Registry  *pose.Registry
	Lights    []*Light
	Occluders []*Occluder
	// Ambient is the unlit floor color.
	Ambient mgl32.Vec3
	// Extent is the half width of the floor area seen by the camera.
	Extent float32

	movers []mover
}

// NewScene creates an empty scene.
func NewScene(name string) *Scene {
	return &Scene{
		Name:     name,
		Registry: pose.NewRegistry(),
		Ambient:  mgl32.Vec3{0.02, 0.02, 0.02},
		Extent:   6,
	}
}

// AddEntity registers a new entity under parent (nil for a root).
func (s *Scene) AddEntity(id uint32, name string, parent *pose.Entity, local pose.Transform) (*pose.Entity, error) {
	e := pose.NewEntity(id, name, parent)
	e.Transform = local
	if err := s.Registry.Add(e); err != nil {
		return nil, fmt.Errorf("failed to add entity %q: %w", name, err)
	}
	return e, nil
}

// AddLight attaches an enabled point light to e.
func (s *Scene) AddLight(e *pose.Entity, color mgl32.Vec3, intensity, rng float32) *Light {
	l := &Light{Entity: e, Color: color, Intensity: intensity, Range: rng, enabled: true}
	s.Lights = append(s.Lights, l)
	return l
}

// AddOccluder makes e cast a shadow disc of the given radius.
func (s *Scene) AddOccluder(e *pose.Entity, radius, shade float32) {
	s.Occluders = append(s.Occluders, &Occluder{Entity: e, Radius: radius, Shade: shade})
}

// Animate gives e a scripted motion applied by Advance.
func (s *Scene) Animate(e *pose.Entity, m Motion) {
	s.movers = append(s.movers, mover{entity: e, motion: m})
}

// Advance moves every animated entity to its pose for frame.
func (s *Scene) Advance(frame uint64) {
	for _, m := range s.movers {
		m.entity.Transform = m.motion(frame)
	}
}

// RankingLights returns the scene lights as ranking.Light values.
func (s *Scene) RankingLights() []ranking.Light {
	out := make([]ranking.Light, len(s.Lights))
	for i, l := range s.Lights {
		out[i] = l
	}
	return out
}

// WorldTransform composes e's transform with its ancestors'.
func WorldTransform(e *pose.Entity) pose.Transform {
	if e.Parent == nil {
		return e.Transform
	}
	p := WorldTransform(e.Parent)
	return pose.Transform{
		Position: p.Position.Add(p.Rotation.Rotate(e.Transform.Position)),
		Rotation: p.Rotation.Mul(e.Transform.Rotation),
	}
}

// Orbit circles the origin at the given radius and height, completing one
// turn every period frames and facing along its path.
func Orbit(radius, height float32, period uint64) Motion {
	return func(frame uint64) pose.Transform {
		angle := 2 * math.Pi * float64(frame%period) / float64(period)
		s, c := math.Sincos(angle)
		return pose.Transform{
			Position: mgl32.Vec3{radius * float32(c), height, radius * float32(s)},
			Rotation: mgl32.QuatRotate(float32(-angle), mgl32.Vec3{0, 1, 0}),
		}
	}
}

// Patrol moves back and forth along the x axis between -span and span,
// bobbing vertically around height.
func Patrol(span, height float32, period uint64) Motion {
	return func(frame uint64) pose.Transform {
		phase := float64(frame%period) / float64(period)
		// Triangle wave in [-1, 1].
		x := 4*math.Abs(phase-0.5) - 1
		bob := 0.25 * math.Sin(4*math.Pi*phase)
		return pose.Transform{
			Position: mgl32.Vec3{span * float32(x), height + float32(bob), 0},
			Rotation: mgl32.QuatIdent(),
		}
	}
}

// NewDemoScene builds the hall used by the command line tool.
//
//	/Hall              root
//	/Hall/Cart         orbits, casts a shadow
//	/Hall/Drone        patrols overhead
//	/Hall/Drone/Spot   light carried by the drone
//	/Hall/LampA        bright lamp near the floor
//	/Hall/LampB        dim lamp high in a corner
func NewDemoScene(name string) (*Scene, error) {
	s := NewScene(name)
	at := func(x, y, z float32) pose.Transform {
		return pose.Transform{Position: mgl32.Vec3{x, y, z}, Rotation: mgl32.QuatIdent()}
	}

	hall, err := s.AddEntity(1, "Hall", nil, pose.IdentityTransform())
	if err != nil {
		return nil, err
	}
	cart, err := s.AddEntity(2, "Cart", hall, at(3, 0.5, 0))
	if err != nil {
		return nil, err
	}
	drone, err := s.AddEntity(3, "Drone", hall, at(-4, 3, 0))
	if err != nil {
		return nil, err
	}
	spot, err := s.AddEntity(4, "Spot", drone, at(0, -0.5, 0))
	if err != nil {
		return nil, err
	}
	lampA, err := s.AddEntity(5, "LampA", hall, at(-2, 1.5, -2))
	if err != nil {
		return nil, err
	}
	lampB, err := s.AddEntity(6, "LampB", hall, at(5, 5, 4))
	if err != nil {
		return nil, err
	}

	s.AddOccluder(cart, 1.5, 0.3)
	s.Animate(cart, Orbit(3, 0.5, 60))
	s.Animate(drone, Patrol(4, 3, 90))

	s.AddLight(lampA, mgl32.Vec3{1, 0.9, 0.7}, 1.2, 3)
	s.AddLight(lampB, mgl32.Vec3{0.8, 0.8, 1}, 0.8, 2.5)
	s.AddLight(spot, mgl32.Vec3{0.6, 0.8, 1}, 0.9, 2)

	return s, nil
}
