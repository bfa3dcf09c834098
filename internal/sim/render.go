package sim

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer rasterises the scene floor as seen from directly above, one
// sample per pixel. It implements ranking.FrameSource.
type Renderer struct {
	Scene  *Scene
	Width  int
	Height int
}

// NewRenderer creates a renderer for s at the given resolution.
func NewRenderer(s *Scene, width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	return &Renderer{Scene: s, Width: width, Height: height}, nil
}

type litLight struct {
	pos       mgl32.Vec3
	color     mgl32.Vec3
	invRange2 float32
}

type shadow struct {
	x, z    float32
	radius2 float32
	shade   float32
}

// CaptureFrame renders the current state of the scene.
func (r *Renderer) CaptureFrame() (image.Image, error) {
	s := r.Scene
	var lights []litLight
	for _, l := range s.Lights {
		if !l.Enabled() || l.Intensity <= 0 {
			continue
		}
		rng := l.Range
		if rng <= 0 {
			rng = 1
		}
		lights = append(lights, litLight{
			pos:       WorldTransform(l.Entity).Position,
			color:     l.Color.Mul(l.Intensity),
			invRange2: 1 / (rng * rng),
		})
	}
	shadows := make([]shadow, 0, len(s.Occluders))
	for _, o := range s.Occluders {
		p := WorldTransform(o.Entity).Position
		shadows = append(shadows, shadow{x: p.X(), z: p.Z(), radius2: o.Radius * o.Radius, shade: o.Shade})
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for py := 0; py < r.Height; py++ {
		z := r.floorCoord(py, r.Height)
		for px := 0; px < r.Width; px++ {
			x := r.floorCoord(px, r.Width)
			c := shade(mgl32.Vec3{x, 0, z}, s.Ambient, lights, shadows)
			img.SetRGBA(px, py, toRGBA(c))
		}
	}
	return img, nil
}

// floorCoord maps a pixel centre to [-Extent, Extent].
func (r *Renderer) floorCoord(p, n int) float32 {
	return ((float32(p)+0.5)/float32(n)*2 - 1) * r.Scene.Extent
}

// shade returns the floor colour at point p. Light falls off as
// 1/(1+d²/range²).
func shade(p, ambient mgl32.Vec3, lights []litLight, shadows []shadow) mgl32.Vec3 {
	var direct mgl32.Vec3
	for _, l := range lights {
		d2 := l.pos.Sub(p).LenSqr()
		direct = direct.Add(l.color.Mul(1 / (1 + d2*l.invRange2)))
	}
	for _, sh := range shadows {
		dx, dz := p.X()-sh.x, p.Z()-sh.z
		if dx*dx+dz*dz <= sh.radius2 {
			direct = direct.Mul(sh.shade)
		}
	}
	return ambient.Add(direct)
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	return color.RGBA{R: channel(c.X()), G: channel(c.Y()), B: channel(c.Z()), A: 0xff}
}

func channel(v float32) uint8 {
	v = mgl32.Clamp(v, 0, 1)
	return uint8(v*255 + 0.5)
}
