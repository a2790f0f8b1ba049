package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterOrder(t *testing.T) {
	var e Emitter[int]
	var got []string

	e.Listen(func(v int) { got = append(got, "a") })
	e.Listen(func(v int) { got = append(got, "b") })
	e.Listen(func(v int) { got = append(got, "c") })

	e.Emit(1)
	e.Emit(2)

	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, got)
}

func TestHandleClose(t *testing.T) {
	t.Run("detached handler sees no further emissions", func(t *testing.T) {
		var e Emitter[int]
		var n int
		h := e.Listen(func(int) { n++ })

		e.Emit(1)
		h.Close()
		e.Emit(2)

		assert.Equal(t, 1, n)
		assert.Zero(t, e.Len())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		var e Emitter[int]
		h := e.Listen(func(int) {})
		h.Close()
		h.Close()
		assert.Zero(t, e.Len())
	})

	t.Run("closing one handle leaves others attached", func(t *testing.T) {
		var e Emitter[int]
		var a, b int
		ha := e.Listen(func(int) { a++ })
		e.Listen(func(int) { b++ })

		ha.Close()
		e.Emit(1)

		assert.Zero(t, a)
		assert.Equal(t, 1, b)
	})
}

func TestCloseDuringEmit(t *testing.T) {
	var e Emitter[int]
	var first, second int

	var h *Handle
	e.Listen(func(int) {
		first++
		h.Close()
	})
	h = e.Listen(func(int) { second++ })

	// The handler detached mid-emission still observes the in-flight
	// emission, then none afterwards.
	e.Emit(1)
	e.Emit(2)

	assert.Equal(t, 2, first)
	assert.Equal(t, 1, second)
}

func TestReentrantEmit(t *testing.T) {
	var outer Emitter[int]
	var inner Emitter[string]
	var got []string

	inner.Listen(func(s string) { got = append(got, s) })
	outer.Listen(func(v int) {
		got = append(got, "outer")
		inner.Emit("inner")
	})

	outer.Emit(1)
	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestListenDuringEmit(t *testing.T) {
	var e Emitter[int]
	var calls int

	e.Listen(func(int) {
		if calls == 0 {
			e.Listen(func(int) { calls += 10 })
		}
		calls++
	})

	e.Emit(1)
	assert.Equal(t, 1, calls, "handler added mid-emission waits for the next")

	e.Emit(2)
	assert.Equal(t, 12, calls)
}
