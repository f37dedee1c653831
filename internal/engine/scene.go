package engine

import (
	"sort"

	"github.com/roach88/stepviz/internal/ir"
)

// Scene is the scene object store.
//
// Objects live in a map keyed by ID plus a creation-order slice; the slice
// is the tiebreak when several objects share a layer. Every read returns
// value copies, so callers never alias live state.
//
// Scene is not safe for concurrent use. The Player is its only writer.
type Scene struct {
	objects map[ir.ID]*ir.Object
	order   []ir.ID
	version uint64
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{objects: make(map[ir.ID]*ir.Object)}
}

// Get returns a copy of the object with the given id.
func (s *Scene) Get(id ir.ID) (ir.Object, bool) {
	o, ok := s.objects[id]
	if !ok {
		return ir.Object{}, false
	}
	return *o, true
}

// Set creates or replaces an object. A replaced object keeps its original
// creation slot.
func (s *Scene) Set(o ir.Object) {
	if cur, ok := s.objects[o.ID]; ok {
		*cur = o
	} else {
		obj := o
		s.objects[o.ID] = &obj
		s.order = append(s.order, o.ID)
	}
	s.version++
}

// Update applies fn to the live object. A missing id is a no-op and
// reports false.
func (s *Scene) Update(id ir.ID, fn func(*ir.Object)) bool {
	o, ok := s.objects[id]
	if !ok {
		return false
	}
	fn(o)
	s.version++
	return true
}

// Delete removes an object. A missing id is a no-op.
func (s *Scene) Delete(id ir.ID) bool {
	if _, ok := s.objects[id]; !ok {
		return false
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
	return true
}

// Values returns copies of all objects in creation order.
func (s *Scene) Values() []ir.Object {
	out := make([]ir.Object, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.objects[id])
	}
	return out
}

// Objects returns copies of all objects sorted by ascending layer. Objects
// sharing a layer keep creation order. Painters draw in this order.
func (s *Scene) Objects() []ir.Object {
	out := s.Values()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Layer < out[j].Layer
	})
	return out
}

// Restore replaces the whole store with copies of objs, taking their slice
// order as creation order.
func (s *Scene) Restore(objs []ir.Object) {
	s.objects = make(map[ir.ID]*ir.Object, len(objs))
	s.order = make([]ir.ID, 0, len(objs))
	for _, o := range objs {
		obj := o
		if _, dup := s.objects[o.ID]; !dup {
			s.order = append(s.order, o.ID)
		}
		s.objects[o.ID] = &obj
	}
	s.version++
}

// Clear removes every object.
func (s *Scene) Clear() {
	s.Restore(nil)
}

// Len returns the number of live objects.
func (s *Scene) Len() int {
	return len(s.order)
}

// Version increments on every mutation. Renderers compare it against the
// last drawn value to decide whether to repaint.
func (s *Scene) Version() uint64 {
	return s.version
}
