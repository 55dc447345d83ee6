package render

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/particle"
)

// Surface is a CPU frame buffer that splats particles as feathered point
// sprites with additive blending and no depth test.
type Surface struct {
	width, height int // viewport size in CSS-style pixels
	pixelRatio    float64
	pointScale    float64

	img   *image.RGBA
	accum []float64 // linear RGB accumulation, 3 per pixel
}

// NewSurface creates a surface for a viewport of width x height at the
// given pixel ratio. pointScale converts base point size to pixels.
func NewSurface(width, height int, pixelRatio, pointScale float64) *Surface {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	if pointScale <= 0 {
		pointScale = particle.DefaultPointScale
	}
	s := &Surface{pixelRatio: pixelRatio, pointScale: pointScale}
	s.Resize(width, height)
	return s
}

// Resize reallocates the frame buffer. Non-positive sizes are ignored.
func (s *Surface) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = width, height
	w, h := s.Bounds()
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.accum = make([]float64, w*h*3)
}

// Viewport returns the viewport size before pixel ratio scaling.
func (s *Surface) Viewport() (int, int) {
	return s.width, s.height
}

// Bounds returns the frame buffer size in device pixels.
func (s *Surface) Bounds() (int, int) {
	w := int(math.Round(float64(s.width) * s.pixelRatio))
	h := int(math.Round(float64(s.height) * s.pixelRatio))
	return max(w, 1), max(h, 1)
}

// Image returns the last drawn frame. It is overwritten by the next Draw.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Draw clears the surface and renders every vertex. It returns the number
// of points that landed in front of the camera.
func (s *Surface) Draw(vertices []particle.Vertex, u *particle.Uniforms, cam *Camera) int {
	clear(s.accum)

	w, h := s.Bounds()
	view := cam.View()
	proj := cam.Projection()

	drawn := 0
	for i := range vertices {
		v := &vertices[i]
		mv := view.Mul4x1(v.Position.Vec4(1))

		size, ok := particle.PointSize(u.Size, s.pointScale, float64(mv.Z()))
		if !ok {
			continue
		}

		clip := proj.Mul4x1(mv)
		cw := clip.W()
		if cw <= 0 {
			continue
		}

		sx := (float64(clip.X()/cw)*0.5 + 0.5) * float64(w)
		sy := (1 - (float64(clip.Y()/cw)*0.5 + 0.5)) * float64(h)
		s.splat(sx, sy, size, v.Color, u, w, h)
		drawn++
	}

	s.resolve()
	return drawn
}

// splat accumulates one point sprite centred on (sx, sy).
func (s *Surface) splat(sx, sy, size float64, vColor colorful.Color, u *particle.Uniforms, w, h int) {
	half := math.Max(size, 1) / 2
	left, top := sx-half, sy-half
	span := 2 * half

	x0 := max(int(math.Floor(left)), 0)
	y0 := max(int(math.Floor(top)), 0)
	x1 := min(int(math.Ceil(sx+half)), w)
	y1 := min(int(math.Ceil(sy+half)), h)

	for py := y0; py < y1; py++ {
		pcy := (float64(py) + 0.5 - top) / span
		if pcy < 0 || pcy > 1 {
			continue
		}
		row := py * w
		for px := x0; px < x1; px++ {
			pcx := (float64(px) + 0.5 - left) / span
			if pcx < 0 || pcx > 1 {
				continue
			}
			c, alpha := particle.Fragment(u, vColor, pcx, pcy)
			if alpha <= 0 {
				continue
			}
			o := (row + px) * 3
			s.accum[o] += c.R * alpha
			s.accum[o+1] += c.G * alpha
			s.accum[o+2] += c.B * alpha
		}
	}
}

// resolve converts the accumulation buffer to 8-bit pixels.
func (s *Surface) resolve() {
	pix := s.img.Pix
	for i, j := 0, 0; i < len(s.accum); i, j = i+3, j+4 {
		pix[j] = toByte(s.accum[i])
		pix[j+1] = toByte(s.accum[i+1])
		pix[j+2] = toByte(s.accum[i+2])
		pix[j+3] = 0xff
	}
}

// toByte converts a [0,1] channel to uint8, saturating out-of-range values.
func toByte(v float64) uint8 {
	v *= 255
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v + 0.5)
}

// At returns the color of pixel (x, y) in the last frame.
func (s *Surface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}
