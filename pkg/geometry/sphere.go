package geometry

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vector3 `json:"center"`
	Radius float32 `json:"radius"`
}

// BoundingSphere returns the sphere enclosing r: centered on the range
// center with radius half the 3-D diagonal. The sphere of an empty range is
// the zero sphere.
func BoundingSphere(r Range3) Sphere {
	if r.IsEmpty() {
		return Sphere{}
	}
	return Sphere{
		Center: r.Center(),
		Radius: r.Diagonal() * 0.5,
	}
}

// ContainsPoint reports whether p lies inside or on the sphere.
func (s Sphere) ContainsPoint(p Vector3) bool {
	return s.Center.DistanceTo(p) <= s.Radius
}
