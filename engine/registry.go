package engine

import "fmt"

// registry assigns entity ids. Global ids count up from 0 and must agree
// across participants; local ids count down from -1 and never leave the
// instance.
type registry struct {
	nextID      int
	nextLocalID int
	global      map[int]*Entity
	local       map[int]*Entity
}

func newRegistry() *registry {
	return &registry{
		nextID:      0,
		nextLocalID: -1,
		global:      make(map[int]*Entity),
		local:       make(map[int]*Entity),
	}
}

func (r *registry) table(local bool) map[int]*Entity {
	if local {
		return r.local
	}
	return r.global
}

func (r *registry) register(e *Entity) {
	if e.local {
		e.id = r.nextLocalID
		r.nextLocalID--
	} else {
		e.id = r.nextID
		r.nextID++
	}
	r.table(e.local)[e.id] = e
}

func (r *registry) registerWithID(e *Entity, id int) error {
	if e.local != (id < 0) {
		return fmt.Errorf("register %d (local=%v): %w", id, e.local, ErrIDSignMismatch)
	}
	t := r.table(e.local)
	if _, ok := t[id]; ok {
		return fmt.Errorf("register %d: %w", id, ErrIDInUse)
	}
	e.id = id
	t[id] = e
	if e.local && id <= r.nextLocalID {
		r.nextLocalID = id - 1
	}
	if !e.local && id >= r.nextID {
		r.nextID = id + 1
	}
	return nil
}

func (r *registry) unregister(e *Entity) {
	t := r.table(e.local)
	if t[e.id] == e {
		delete(t, e.id)
	}
}

// find looks id up in the namespace its sign selects.
func (r *registry) find(id int) (*Entity, bool) {
	e, ok := r.table(id < 0)[id]
	return e, ok
}
