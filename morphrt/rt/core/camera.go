package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraState struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	FovY     float32 // degrees
	Aspect   float32
	Near     float32
	Far      float32
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position: mgl32.Vec3{0, 0, 50},
		Target:   mgl32.Vec3{0, 0, 0},
		FovY:     75,
		Aspect:   1,
		Near:     0.1,
		Far:      1000,
	}
}

// SetAspect recomputes the aspect ratio from a surface size.
// Degenerate sizes keep the previous aspect.
func (c *CameraState) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *CameraState) GetProjectionMatrix() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// MouseWorldScale returns the half extents of the visible area on the z=0 plane.
// Multiplying a normalized pointer position by it yields world units.
func (c *CameraState) MouseWorldScale() mgl32.Vec2 {
	dist := c.Position.Sub(c.Target).Len()
	halfH := dist * float32(math.Tan(float64(mgl32.DegToRad(c.FovY))/2))
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	return mgl32.Vec2{halfH * aspect, halfH}
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0.
func (c *CameraState) ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes[0] = r3.Add(r0) // Left
	planes[1] = r3.Sub(r0) // Right
	planes[2] = r3.Add(r1) // Bottom
	planes[3] = r3.Sub(r1) // Top
	planes[4] = r3.Add(r2) // Near (OpenGL-style -1..1)
	planes[5] = r3.Sub(r2) // Far

	for i := 0; i < 6; i++ {
		length := planes[i].Vec3().Len()
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// PointInFrustum reports whether p lies on the inner side of all planes.
func PointInFrustum(planes [6]mgl32.Vec4, p mgl32.Vec3) bool {
	for _, pl := range planes {
		if pl.Vec3().Dot(p)+pl.W() < 0 {
			return false
		}
	}
	return true
}
