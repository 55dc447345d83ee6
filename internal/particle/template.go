package particle

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Template identifies the shape a particle joins while morphing.
type Template uint8

const (
	Heart Template = iota
	Flower
	Saturn
	Firework

	// NumTemplates is the number of shape templates.
	NumTemplates = 4
)

var templateNames = [NumTemplates]string{"heart", "flower", "saturn", "firework"}

func (t Template) String() string {
	if t >= NumTemplates {
		return "firework"
	}
	return templateNames[t]
}

// transform maps an original position to its template position at time t.
type transform func(p mgl32.Vec3, t float64) mgl32.Vec3

var transforms = [NumTemplates]transform{
	Heart:    heart,
	Flower:   flower,
	Saturn:   saturn,
	Firework: firework,
}

// Apply returns p placed on the template shape at time t.
// Out-of-range ids fall through to Firework.
func (t Template) Apply(p mgl32.Vec3, time float64) mgl32.Vec3 {
	if t >= NumTemplates {
		t = Firework
	}
	return transforms[t](p, time)
}

// Morph computes the displayed position of a particle for one frame:
// the idle wave or the particle's template, scaled by the expansion factor.
func Morph(p mgl32.Vec3, tmpl Template, u *Uniforms) mgl32.Vec3 {
	var out mgl32.Vec3
	if u.Morphing() {
		out = tmpl.Apply(p, u.Time)
	} else {
		out = Idle(p, u.Time)
	}
	return out.Mul(float32(u.ExpansionFactor))
}

// Idle applies a small vertical ripple driven by x and time.
func Idle(p mgl32.Vec3, t float64) mgl32.Vec3 {
	x := float64(p.X())
	return mgl32.Vec3{p.X(), p.Y() + float32(math.Sin(x*5+t)*0.05), p.Z()}
}

// polar returns the xy radius and angle of p.
func polar(p mgl32.Vec3) (r, angle float64) {
	x, y := float64(p.X()), float64(p.Y())
	return math.Hypot(x, y), math.Atan2(y, x)
}

func heart(p mgl32.Vec3, t float64) mgl32.Vec3 {
	r, angle := polar(p)
	r *= 0.5
	pulse := math.Sin(t*2)*0.1 + 1

	s := angle + float64(p.Z())
	ss := math.Sin(s)
	x := ss * ss * ss * 10 * r * 0.1 * pulse
	y := (13*math.Cos(s) - 5*math.Cos(2*s) - 2*math.Cos(3*s) - math.Cos(4*s)) * 0.005 * r * pulse

	return mgl32.Vec3{float32(x), float32(y), p.Z()}
}

func flower(p mgl32.Vec3, t float64) mgl32.Vec3 {
	r, angle := polar(p)
	r *= 0.5
	petal := math.Sin(angle*5) * 0.2

	x := math.Cos(angle+petal) * r * 2
	y := math.Sin(angle+petal) * r * 2
	z := float64(p.Z())*0.5 + math.Cos(angle*3+t)*0.5

	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

// saturnRadius is the fixed ring radius.
const saturnRadius = 3

func saturn(p mgl32.Vec3, t float64) mgl32.Vec3 {
	_, angle := polar(p)

	x := math.Cos(angle) * saturnRadius
	y := math.Sin(angle) * saturnRadius
	z := math.Sin(float64(p.Z())*10+t) * 0.5

	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

func firework(p mgl32.Vec3, t float64) mgl32.Vec3 {
	return p.Mul(float32(1 + math.Sin(t*5)*0.5))
}
