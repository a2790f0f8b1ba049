// Package geometry provides the float32 vector, range and sphere math used
// by the tile tree packages. Ranges are axis-aligned boxes in model or world
// coordinates; the empty range is represented with inverted infinities so
// that union and expansion need no special cases.
package geometry

import (
	"github.com/chewxy/math32"
)

// Vector3 is a point or direction in 3-D space.
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// V3 returns the vector (x, y, z).
func V3(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// MulScalar returns v scaled by s.
func (v Vector3) MulScalar(s float32) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Min returns the component-wise minimum of v and o.
func (v Vector3) Min(o Vector3) Vector3 {
	return Vector3{
		X: math32.Min(v.X, o.X),
		Y: math32.Min(v.Y, o.Y),
		Z: math32.Min(v.Z, o.Z),
	}
}

// Max returns the component-wise maximum of v and o.
func (v Vector3) Max(o Vector3) Vector3 {
	return Vector3{
		X: math32.Max(v.X, o.X),
		Y: math32.Max(v.Y, o.Y),
		Z: math32.Max(v.Z, o.Z),
	}
}

// Length returns the euclidean length of v.
func (v Vector3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the euclidean distance between v and o.
func (v Vector3) DistanceTo(o Vector3) float32 {
	return v.Sub(o).Length()
}

// ApproxEqual reports whether every component of v is within tol of o.
func (v Vector3) ApproxEqual(o Vector3, tol float32) bool {
	return math32.Abs(v.X-o.X) <= tol &&
		math32.Abs(v.Y-o.Y) <= tol &&
		math32.Abs(v.Z-o.Z) <= tol
}
