// Package particle implements the particle field and its shape morphing kernel.
package particle

import "github.com/lucasb-eyer/go-colorful"

// DefaultSize is the base point size before perspective attenuation.
const DefaultSize = 0.025

// Expansion bounds.
const (
	MinExpansion = 1.0
	MaxExpansion = 3.0
)

// White is the initial base color and the per-particle color.
var White = colorful.Color{R: 1, G: 1, B: 1}

// Uniforms are the parameters shared by every particle in a frame.
// The gesture mapper writes them and the kernel reads them; the render
// loop owns the value and hands it to both by reference.
type Uniforms struct {
	Time            float64        // seconds since the loop started
	ExpansionFactor float64        // always within [MinExpansion, MaxExpansion]
	BaseColor       colorful.Color // applied to every particle
	TemplateSwitch  float64        // 1 selects the shape templates, 0 the idle wave
	Size            float64        // base point size
}

// DefaultUniforms returns the state before any hand has been seen.
func DefaultUniforms() Uniforms {
	return Uniforms{
		ExpansionFactor: MinExpansion,
		BaseColor:       White,
		TemplateSwitch:  0,
		Size:            DefaultSize,
	}
}

// Morphing reports whether the shape templates are active.
func (u *Uniforms) Morphing() bool {
	return u.TemplateSwitch > 0.5
}

// Advance moves the clock forward to t. Earlier times are ignored so the
// clock never runs backwards.
func (u *Uniforms) Advance(t float64) {
	if t > u.Time {
		u.Time = t
	}
}
