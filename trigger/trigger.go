// Package trigger provides ordered, synchronous event channels. Handlers run
// on the caller's goroutine in registration order.
package trigger

// Handle identifies a registered handler so it can be removed later.
type Handle struct {
	id uint32
}

type handler[T any] struct {
	id      uint32
	fn      func(T)
	once    bool
	removed bool
}

// Trigger is a typed event channel. The zero value is ready to use.
type Trigger[T any] struct {
	handlers  []*handler[T]
	nextID    uint32
	destroyed bool
}

// Add registers fn and returns a handle for Remove.
func (t *Trigger[T]) Add(fn func(T)) Handle {
	return t.add(fn, false)
}

// AddOnce registers fn to run on the next Fire only.
func (t *Trigger[T]) AddOnce(fn func(T)) Handle {
	return t.add(fn, true)
}

func (t *Trigger[T]) add(fn func(T), once bool) Handle {
	if t.destroyed {
		return Handle{}
	}
	t.nextID++
	t.handlers = append(t.handlers, &handler[T]{id: t.nextID, fn: fn, once: once})
	return Handle{id: t.nextID}
}

// Remove unregisters the handler. It reports whether a handler was removed.
func (t *Trigger[T]) Remove(h Handle) bool {
	for i, hd := range t.handlers {
		if hd.id == h.id {
			hd.removed = true
			copy(t.handlers[i:], t.handlers[i+1:])
			t.handlers[len(t.handlers)-1] = nil
			t.handlers = t.handlers[:len(t.handlers)-1]
			return true
		}
	}
	return false
}

// Fire calls every handler registered before the call. Handlers added while
// firing wait for the next Fire; handlers removed while firing are skipped.
func (t *Trigger[T]) Fire(v T) {
	if len(t.handlers) == 0 {
		return
	}
	snapshot := make([]*handler[T], len(t.handlers))
	copy(snapshot, t.handlers)
	for _, hd := range snapshot {
		if hd.removed {
			continue
		}
		if hd.once {
			t.Remove(Handle{id: hd.id})
		}
		hd.fn(v)
		if t.destroyed {
			return
		}
	}
}

// Len returns the number of registered handlers.
func (t *Trigger[T]) Len() int {
	return len(t.handlers)
}

// Destroy drops all handlers; later Add calls are ignored.
func (t *Trigger[T]) Destroy() {
	for _, hd := range t.handlers {
		hd.removed = true
	}
	t.handlers = nil
	t.destroyed = true
}

func (t *Trigger[T]) Destroyed() bool {
	return t.destroyed
}
