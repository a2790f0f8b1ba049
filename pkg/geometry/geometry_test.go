package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyRange3(t *testing.T) {
	t.Run("is empty and has zero measures", func(t *testing.T) {
		e := EmptyRange3()
		assert.True(t, e.IsEmpty())
		assert.Equal(t, Vector3{}, e.Center())
		assert.Equal(t, Vector3{}, e.Size())
		assert.Equal(t, float32(0), e.Diagonal())
		assert.Equal(t, "[empty]", e.String())
	})

	t.Run("zero value is not empty", func(t *testing.T) {
		var r Range3
		assert.False(t, r.IsEmpty())
		assert.True(t, r.ContainsPoint(Vector3{}))
	})

	t.Run("expanding empty by point yields that point", func(t *testing.T) {
		e := EmptyRange3()
		e.ExpandByPoint(V3(1, 2, 3))
		require.False(t, e.IsEmpty())
		assert.Equal(t, V3(1, 2, 3), e.Min)
		assert.Equal(t, V3(1, 2, 3), e.Max)
	})
}

func TestRange3Union(t *testing.T) {
	a := NewRange3(V3(0, 0, 0), V3(1, 1, 1))
	b := NewRange3(V3(2, -1, 0), V3(3, 0.5, 4))

	t.Run("union spans both", func(t *testing.T) {
		u := a.Union(b)
		assert.Equal(t, V3(0, -1, 0), u.Min)
		assert.Equal(t, V3(3, 1, 4), u.Max)
	})

	t.Run("union with empty is identity", func(t *testing.T) {
		assert.Equal(t, a, a.Union(EmptyRange3()))
		assert.Equal(t, a, EmptyRange3().Union(a))
	})

	t.Run("union of two empties is empty", func(t *testing.T) {
		assert.True(t, EmptyRange3().Union(EmptyRange3()).IsEmpty())
	})

	t.Run("expand by empty leaves range unchanged", func(t *testing.T) {
		r := a
		r.ExpandByRange(EmptyRange3())
		assert.Equal(t, a, r)
	})
}

func TestNewRange3Normalizes(t *testing.T) {
	r := NewRange3(V3(5, -1, 2), V3(1, 3, 2))
	assert.Equal(t, V3(1, -1, 2), r.Min)
	assert.Equal(t, V3(5, 3, 2), r.Max)
	assert.False(t, r.IsEmpty())
}

func TestRange3Queries(t *testing.T) {
	a := NewRange3(V3(0, 0, 0), V3(4, 4, 4))
	b := NewRange3(V3(3, 3, 3), V3(6, 6, 6))
	c := NewRange3(V3(5, 5, 5), V3(6, 6, 6))

	t.Run("intersects", func(t *testing.T) {
		assert.True(t, a.Intersects(b))
		assert.True(t, b.Intersects(a))
		assert.False(t, a.Intersects(c))
		assert.False(t, a.Intersects(EmptyRange3()))
	})

	t.Run("contains", func(t *testing.T) {
		inner := NewRange3(V3(1, 1, 1), V3(2, 2, 2))
		assert.True(t, a.Contains(inner))
		assert.False(t, inner.Contains(a))
		assert.True(t, a.Contains(EmptyRange3()))
		assert.False(t, EmptyRange3().Contains(a))
	})

	t.Run("contains point", func(t *testing.T) {
		assert.True(t, a.ContainsPoint(V3(4, 4, 4)))
		assert.False(t, a.ContainsPoint(V3(4.1, 4, 4)))
		assert.False(t, EmptyRange3().ContainsPoint(Vector3{}))
	})
}

func TestRange3ApproxEqual(t *testing.T) {
	a := NewRange3(V3(0, 0, 0), V3(1, 1, 1))
	b := NewRange3(V3(0.00005, 0, 0), V3(1, 1, 0.99995))

	assert.True(t, a.ApproxEqual(b, 1e-4))
	assert.False(t, a.ApproxEqual(b, 1e-6))
	assert.True(t, EmptyRange3().ApproxEqual(EmptyRange3(), 1e-4))
	assert.False(t, a.ApproxEqual(EmptyRange3(), 1e-4))
}

func TestBoundingSphere(t *testing.T) {
	t.Run("center and half diagonal", func(t *testing.T) {
		r := NewRange3(V3(0, 0, 0), V3(2, 2, 2))
		s := BoundingSphere(r)
		assert.Equal(t, V3(1, 1, 1), s.Center)
		assert.InDelta(t, 1.7320508, float64(s.Radius), 1e-4)
	})

	t.Run("encloses the range corners", func(t *testing.T) {
		r := NewRange3(V3(-3, 1, 0), V3(5, 2, 9))
		s := BoundingSphere(r)
		assert.True(t, s.ContainsPoint(r.Min))
		assert.True(t, s.ContainsPoint(r.Max))
	})

	t.Run("empty range yields zero sphere", func(t *testing.T) {
		assert.Equal(t, Sphere{}, BoundingSphere(EmptyRange3()))
	})
}

func TestVector3Math(t *testing.T) {
	v := V3(3, 4, 0)
	assert.InDelta(t, 5.0, float64(v.Length()), 1e-6)
	assert.InDelta(t, 5.0, float64(V3(0, 0, 0).DistanceTo(v)), 1e-6)
	assert.Equal(t, V3(6, 8, 0), v.MulScalar(2))
	assert.Equal(t, V3(4, 6, 1), v.Add(V3(1, 2, 1)))
	assert.Equal(t, V3(2, 2, -1), v.Sub(V3(1, 2, 1)))
	assert.True(t, v.ApproxEqual(V3(3.00001, 4, 0), 1e-4))
	assert.False(t, v.ApproxEqual(V3(3.1, 4, 0), 1e-4))
}

func TestTransform(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		id := IdentityTransform()
		assert.True(t, id.IsIdentity())
		assert.Equal(t, V3(1, 2, 3), id.Apply(V3(1, 2, 3)))
	})

	t.Run("translation applies to points and ranges", func(t *testing.T) {
		tr := Transform{Translation: V3(10, 0, -5)}
		require.False(t, tr.IsIdentity())
		assert.Equal(t, V3(11, 2, -2), tr.Apply(V3(1, 2, 3)))

		r := tr.ApplyRange(NewRange3(V3(0, 0, 0), V3(1, 1, 1)))
		assert.Equal(t, V3(10, 0, -5), r.Min)
		assert.Equal(t, V3(11, 1, -4), r.Max)
	})

	t.Run("empty range stays empty", func(t *testing.T) {
		tr := Transform{Translation: V3(1, 1, 1)}
		assert.True(t, tr.ApplyRange(EmptyRange3()).IsEmpty())
	})
}
