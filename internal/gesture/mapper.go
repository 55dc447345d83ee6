// Package gesture maps hand landmarks onto the particle field uniforms.
package gesture

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/particle"
)

// Pinch distances mapped onto the expansion range.
const (
	MinPinch = 0.05
	MaxPinch = 0.4
)

// Color and template switch parameters.
const (
	Saturation = 1.0
	Lightness  = 0.5
	// SwitchThreshold is how far the wrist must move from frame center.
	SwitchThreshold = 0.4
	frameCenter     = 0.5
)

// Mapper translates the latest landmarks into uniform values.
// It holds no state between calls.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Apply writes expansion, base color and template switch into u.
// Absent, short or non-finite landmark lists leave u unchanged and
// Apply reports false.
func (m *Mapper) Apply(landmarks []detector.Point3D, u *particle.Uniforms) bool {
	if u == nil || !valid(landmarks) {
		return false
	}

	wrist := landmarks[detector.Wrist]

	u.ExpansionFactor = Expansion(detector.Distance(landmarks[detector.ThumbTip], landmarks[detector.IndexTip]))
	u.BaseColor = Color(wrist.X)
	if TemplateSwitch(wrist.X) {
		u.TemplateSwitch = 1
	} else {
		u.TemplateSwitch = 0
	}
	return true
}

func valid(landmarks []detector.Point3D) bool {
	if len(landmarks) < detector.NumLandmarks {
		return false
	}
	for _, p := range landmarks[:detector.NumLandmarks] {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// Expansion maps a thumb-to-index distance onto [MinExpansion, MaxExpansion].
func Expansion(pinch float64) float64 {
	f := MapLinear(pinch, MinPinch, MaxPinch, particle.MinExpansion, particle.MaxExpansion)
	return Clamp(f, particle.MinExpansion, particle.MaxExpansion)
}

// Hue returns the hue selected by a wrist x position. Values inside [0,1]
// are used as-is; values outside wrap around the color wheel.
func Hue(wristX float64) float64 {
	if wristX >= 0 && wristX <= 1 {
		return wristX
	}
	h := math.Mod(wristX, 1)
	if h < 0 {
		h++
	}
	return h
}

// Color returns the fully saturated, mid-lightness color for a wrist x.
func Color(wristX float64) colorful.Color {
	return colorful.Hsl(Hue(wristX)*360, Saturation, Lightness)
}

// TemplateSwitch reports whether the wrist is in the outer tenth of either
// horizontal edge. Exactly on the threshold is not enough.
func TemplateSwitch(wristX float64) bool {
	return math.Abs(wristX-frameCenter) > SwitchThreshold
}

// MapLinear maps x from the range [a1, a2] to [b1, b2] without clamping.
func MapLinear(x, a1, a2, b1, b2 float64) float64 {
	return b1 + (x-a1)*(b2-b1)/(a2-a1)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
