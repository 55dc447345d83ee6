package render

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/particle"
)

func TestCamera_ProjectsOriginToCenter(t *testing.T) {
	cam := NewCamera(800, 600)
	assert.InDelta(t, 800.0/600.0, cam.Aspect(), 1e-6)

	mv := cam.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -DefaultEyeZ, mv.Z(), 1e-6)

	clip := cam.Projection().Mul4x1(mv)
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-6)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-6)
}

func TestCamera_Resize(t *testing.T) {
	cam := NewCamera(800, 600)
	before := cam.Projection()

	cam.Resize(400, 400)
	assert.InDelta(t, 1.0, cam.Aspect(), 1e-6)
	assert.NotEqual(t, before, cam.Projection())

	cam.Resize(0, 100)
	assert.InDelta(t, 1.0, cam.Aspect(), 1e-6, "invalid sizes are ignored")
}

func TestSurface_Bounds(t *testing.T) {
	s := NewSurface(200, 100, 1.5, 0)
	w, h := s.Bounds()
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)
	assert.Equal(t, image.Rect(0, 0, 300, 150), s.Image().Bounds())

	s.Resize(40, 20)
	vw, vh := s.Viewport()
	assert.Equal(t, 40, vw)
	assert.Equal(t, 20, vh)
	assert.Equal(t, image.Rect(0, 0, 60, 30), s.Image().Bounds())

	s.Resize(-1, 10)
	vw, _ = s.Viewport()
	assert.Equal(t, 40, vw)
}

func bigPoints() particle.Uniforms {
	u := particle.DefaultUniforms()
	u.Size = 0.25 // 10px at the origin
	return u
}

func TestSurface_DrawSinglePoint(t *testing.T) {
	s := NewSurface(100, 100, 1, particle.DefaultPointScale)
	cam := NewCamera(100, 100)
	u := bigPoints()

	drawn := s.Draw([]particle.Vertex{{Position: mgl32.Vec3{0, 0, 0}, Color: particle.White}}, &u, cam)
	require.Equal(t, 1, drawn)

	center := s.At(50, 50)
	assert.Greater(t, center.R, uint8(200))
	assert.Equal(t, center.R, center.G, "white base color keeps channels equal")
	assert.Equal(t, uint8(0xff), center.A)

	// outside the sprite stays black
	corner := s.At(2, 2)
	assert.Equal(t, uint8(0), corner.R)
	// the feathered edge is dimmer than the center
	edge := s.At(54, 50)
	assert.Less(t, edge.R, center.R)
}

func TestSurface_DrawTintsWithBaseColor(t *testing.T) {
	s := NewSurface(100, 100, 1, particle.DefaultPointScale)
	cam := NewCamera(100, 100)
	u := bigPoints()
	u.BaseColor.R, u.BaseColor.G, u.BaseColor.B = 1, 0, 0

	s.Draw([]particle.Vertex{{Color: particle.White}}, &u, cam)

	px := s.At(50, 50)
	assert.Greater(t, px.R, uint8(200))
	assert.Equal(t, uint8(0), px.G)
	assert.Equal(t, uint8(0), px.B)
}

func TestSurface_AdditiveBlending(t *testing.T) {
	cam := NewCamera(100, 100)
	u := bigPoints()
	u.BaseColor.R, u.BaseColor.G, u.BaseColor.B = 0.3, 0.3, 0.3

	one := NewSurface(100, 100, 1, particle.DefaultPointScale)
	one.Draw([]particle.Vertex{{Color: particle.White}}, &u, cam)

	two := NewSurface(100, 100, 1, particle.DefaultPointScale)
	two.Draw([]particle.Vertex{{Color: particle.White}, {Color: particle.White}}, &u, cam)

	assert.Greater(t, two.At(50, 50).R, one.At(50, 50).R)
}

func TestSurface_CullsBehindCamera(t *testing.T) {
	s := NewSurface(100, 100, 1, particle.DefaultPointScale)
	cam := NewCamera(100, 100)
	u := bigPoints()

	drawn := s.Draw([]particle.Vertex{
		{Position: mgl32.Vec3{0, 0, DefaultEyeZ}, Color: particle.White},
		{Position: mgl32.Vec3{0, 0, 10}, Color: particle.White},
	}, &u, cam)
	assert.Equal(t, 0, drawn)
}

func TestSurface_ClearsBetweenFrames(t *testing.T) {
	s := NewSurface(100, 100, 1, particle.DefaultPointScale)
	cam := NewCamera(100, 100)
	u := bigPoints()

	s.Draw([]particle.Vertex{{Color: particle.White}}, &u, cam)
	require.Greater(t, s.At(50, 50).R, uint8(0))

	s.Draw(nil, &u, cam)
	assert.Equal(t, uint8(0), s.At(50, 50).R)
}

func TestSurface_DrawsKernelOutput(t *testing.T) {
	f := particle.NewSeededField(2000, 11)
	out := make([]particle.Vertex, f.Len())
	u := particle.DefaultUniforms()
	require.NoError(t, particle.NewKernel(2).Evaluate(t.Context(), f, u, out))

	s := NewSurface(320, 240, 1, particle.DefaultPointScale)
	drawn := s.Draw(out, &u, NewCamera(320, 240))
	assert.Greater(t, drawn, f.Len()/2, "most of the cube lies in front of the camera")
}

func TestToByte(t *testing.T) {
	assert.Equal(t, uint8(0), toByte(-1))
	assert.Equal(t, uint8(0), toByte(0))
	assert.Equal(t, uint8(128), toByte(0.5))
	assert.Equal(t, uint8(255), toByte(1))
	assert.Equal(t, uint8(255), toByte(3))
}

func TestEncodeJPEG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires OpenCV")
	}

	s := NewSurface(64, 48, 1, particle.DefaultPointScale)
	u := bigPoints()
	s.Draw([]particle.Vertex{{Color: particle.White}}, &u, NewCamera(64, 48))

	data, err := EncodeJPEG(s.Image(), DefaultJPEGQuality)
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}
