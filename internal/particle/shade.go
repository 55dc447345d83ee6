package particle

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPointScale converts base size to pixels at unit view depth.
const DefaultPointScale = 200

// PointSize returns the on-screen point size for a vertex at view-space
// depth viewZ (negative in front of the camera). ok is false for points at
// or behind the camera plane.
func PointSize(size, scale, viewZ float64) (px float64, ok bool) {
	if viewZ >= 0 {
		return 0, false
	}
	return size * (scale / -viewZ), true
}

// Fragment shades one pixel of a point sprite. (px, py) is the position
// inside the sprite in [0,1]^2. It returns the color and its alpha, which
// falls from 1 at the sprite center to 0 at the inscribed circle.
func Fragment(u *Uniforms, vColor colorful.Color, px, py float64) (colorful.Color, float64) {
	cx, cy := 2*px-1, 2*py-1
	r := cx*cx + cy*cy
	alpha := Smoothstep(1.0, 0.5, r)

	flicker := math.Sin(u.Time*3+math.Hypot(px, py))*0.1 + 0.9
	c := colorful.Color{
		R: u.BaseColor.R * vColor.R * flicker,
		G: u.BaseColor.G * vColor.G * flicker,
		B: u.BaseColor.B * vColor.B * flicker,
	}
	return c, alpha
}

// Smoothstep is the Hermite interpolation of x between edge0 and edge1.
// edge0 may exceed edge1, which inverts the ramp.
func Smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}
