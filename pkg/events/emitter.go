// Package events provides a minimal typed emitter with explicit
// subscription handles. Handlers run serially, in registration order, on
// the emitting goroutine.
package events

import (
	"sync"
)

// Emitter dispatches values of type T to registered handlers. The zero
// value is ready to use.
type Emitter[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers []handler[T]
}

type handler[T any] struct {
	id int
	fn func(T)
}

// Handle detaches one handler from its emitter when closed. Closing twice
// is safe.
type Handle struct {
	once   sync.Once
	cancel func()
}

// Close detaches the handler. A handler detached while an emission is in
// flight may still observe that emission; it observes none afterwards.
func (h *Handle) Close() {
	h.once.Do(h.cancel)
}

// Listen registers fn and returns the handle that detaches it.
func (e *Emitter[T]) Listen(fn func(T)) *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.handlers = append(e.handlers, handler[T]{id: id, fn: fn})

	return &Handle{cancel: func() { e.remove(id) }}
}

// Emit calls every registered handler with v, in registration order. Emit
// returns after the last handler does. Handlers may register or detach
// handlers, and may emit on other emitters.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	snapshot := make([]handler[T], len(e.handlers))
	copy(snapshot, e.handlers)
	e.mu.Unlock()

	for _, h := range snapshot {
		h.fn(v)
	}
}

// Len returns the number of registered handlers.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

func (e *Emitter[T]) remove(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}
