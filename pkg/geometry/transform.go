package geometry

// Transform places model-local coordinates in world space. Tile trees are
// axis aligned, so only translation is represented.
type Transform struct {
	Translation Vector3 `json:"translation"`
}

// IdentityTransform returns the transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{}
}

// IsIdentity reports whether the transform leaves points unchanged.
func (t Transform) IsIdentity() bool {
	return t.Translation == Vector3{}
}

// Apply returns p positioned in world space.
func (t Transform) Apply(p Vector3) Vector3 {
	return p.Add(t.Translation)
}

// ApplyRange returns r positioned in world space. Empty ranges stay empty.
func (t Transform) ApplyRange(r Range3) Range3 {
	if r.IsEmpty() {
		return r
	}
	return Range3{Min: t.Apply(r.Min), Max: t.Apply(r.Max)}
}
