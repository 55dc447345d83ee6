// Package render rasterises particle vertices into RGBA frames.
package render

import "github.com/go-gl/mathgl/mgl32"

// Camera defaults.
const (
	DefaultFOV  = 75 // degrees, vertical
	DefaultNear = 0.1
	DefaultFar  = 1000
	DefaultEyeZ = 5
)

// Camera is a perspective camera on the +z axis looking at the origin.
type Camera struct {
	fov, near, far float32
	eye            mgl32.Vec3
	aspect         float32
	view           mgl32.Mat4
	proj           mgl32.Mat4
}

// NewCamera creates the default camera for a viewport of the given size.
func NewCamera(width, height int) *Camera {
	c := &Camera{
		fov:  DefaultFOV,
		near: DefaultNear,
		far:  DefaultFar,
		eye:  mgl32.Vec3{0, 0, DefaultEyeZ},
	}
	c.view = mgl32.LookAtV(c.eye, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	c.Resize(width, height)
	return c
}

// Resize updates the aspect ratio and recomputes the projection.
// Non-positive sizes are ignored.
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
	c.proj = mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
}

// Aspect returns the current width/height ratio.
func (c *Camera) Aspect() float32 {
	return c.aspect
}

// View returns the model-view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

// Projection returns the projection matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return c.proj
}
