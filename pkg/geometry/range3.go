package geometry

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Range3 is an axis-aligned bounding box. The zero value is the box that
// contains only the origin; use EmptyRange3 for the box containing nothing.
type Range3 struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}

// NewRange3 returns the range spanning a and b, normalizing the corners so
// that Min <= Max on every axis.
func NewRange3(a, b Vector3) Range3 {
	return Range3{Min: a.Min(b), Max: a.Max(b)}
}

// EmptyRange3 returns the range that contains nothing. Expanding it by a
// point or another range yields that point or range.
func EmptyRange3() Range3 {
	inf := math32.Inf(1)
	return Range3{
		Min: Vector3{X: inf, Y: inf, Z: inf},
		Max: Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the range contains nothing.
func (r Range3) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y || r.Min.Z > r.Max.Z
}

// ExpandByPoint grows the range in place to include p.
func (r *Range3) ExpandByPoint(p Vector3) {
	r.Min = r.Min.Min(p)
	r.Max = r.Max.Max(p)
}

// ExpandByRange grows the range in place to include o. Expanding by an
// empty range leaves r unchanged.
func (r *Range3) ExpandByRange(o Range3) {
	if o.IsEmpty() {
		return
	}
	r.Min = r.Min.Min(o.Min)
	r.Max = r.Max.Max(o.Max)
}

// Union returns the smallest range containing both r and o.
func (r Range3) Union(o Range3) Range3 {
	if r.IsEmpty() {
		return o
	}
	out := r
	out.ExpandByRange(o)
	return out
}

// Center returns the midpoint of the range. The center of an empty range is
// the zero vector.
func (r Range3) Center() Vector3 {
	if r.IsEmpty() {
		return Vector3{}
	}
	return r.Min.Add(r.Max).MulScalar(0.5)
}

// Size returns the extent of the range on each axis. An empty range has
// zero size.
func (r Range3) Size() Vector3 {
	if r.IsEmpty() {
		return Vector3{}
	}
	return r.Max.Sub(r.Min)
}

// Diagonal returns the length of the 3-D diagonal of the range.
func (r Range3) Diagonal() float32 {
	return r.Size().Length()
}

// Intersects reports whether r and o share any point. Empty ranges
// intersect nothing.
func (r Range3) Intersects(o Range3) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.Min.X <= o.Max.X && r.Max.X >= o.Min.X &&
		r.Min.Y <= o.Max.Y && r.Max.Y >= o.Min.Y &&
		r.Min.Z <= o.Max.Z && r.Max.Z >= o.Min.Z
}

// Contains reports whether o lies entirely inside r. Every range contains
// the empty range.
func (r Range3) Contains(o Range3) bool {
	if o.IsEmpty() {
		return true
	}
	if r.IsEmpty() {
		return false
	}
	return r.Min.X <= o.Min.X && r.Max.X >= o.Max.X &&
		r.Min.Y <= o.Min.Y && r.Max.Y >= o.Max.Y &&
		r.Min.Z <= o.Min.Z && r.Max.Z >= o.Max.Z
}

// ContainsPoint reports whether p lies inside r.
func (r Range3) ContainsPoint(p Vector3) bool {
	if r.IsEmpty() {
		return false
	}
	return r.Min.X <= p.X && p.X <= r.Max.X &&
		r.Min.Y <= p.Y && p.Y <= r.Max.Y &&
		r.Min.Z <= p.Z && p.Z <= r.Max.Z
}

// ApproxEqual reports whether both corners of r are within tol of o.
// Two empty ranges are equal regardless of their internal representation.
func (r Range3) ApproxEqual(o Range3, tol float32) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return r.IsEmpty() && o.IsEmpty()
	}
	return r.Min.ApproxEqual(o.Min, tol) && r.Max.ApproxEqual(o.Max, tol)
}

// String renders the range for logs and error messages.
func (r Range3) String() string {
	if r.IsEmpty() {
		return "[empty]"
	}
	return fmt.Sprintf("[%g,%g,%g - %g,%g,%g]", r.Min.X, r.Min.Y, r.Min.Z, r.Max.X, r.Max.Y, r.Max.Z)
}
