package store

import (
	"encoding/json"
	"fmt"
	"iter"
)

const exclusive = -1

type slot[T any] struct {
	val    T
	borrow int32 // 0 free, >0 shared count, -1 exclusive
}

// Arena is an append-only vector addressed by ID[T].
// Elements are boxed so handles stay valid across Add.
type Arena[T any] struct {
	name  string
	slots []*slot[T]
}

// NewArena creates an empty arena. The name only appears in panic messages.
func NewArena[T any](name string) *Arena[T] {
	return &Arena[T]{name: name}
}

// Name returns the arena's diagnostic name.
func (a *Arena[T]) Name() string { return a.name }

// SetName renames the arena; used after decoding a snapshot.
func (a *Arena[T]) SetName(name string) { a.name = name }

// Add appends v and returns its ID, equal to the pre-insert length.
func (a *Arena[T]) Add(v T) ID[T] {
	id := ID[T]{idx: uint32(len(a.slots))}
	a.slots = append(a.slots, &slot[T]{val: v})
	return id
}

// Len returns the number of entities ever added.
func (a *Arena[T]) Len() int { return len(a.slots) }

// Check reports an *IDError if id does not name an entity of this arena.
// Use it on ids decoded from untrusted input.
func (a *Arena[T]) Check(id ID[T]) error {
	if _, ok := a.Validate(id.Index()); !ok {
		return &IDError{Store: a.name, Index: id.Index(), Len: len(a.slots)}
	}
	return nil
}

// Validate converts an untrusted raw index into an ID.
func (a *Arena[T]) Validate(raw int) (ID[T], bool) {
	if raw < 0 || raw >= len(a.slots) {
		return ID[T]{}, false
	}
	return ID[T]{idx: uint32(raw)}, true
}

// IDs returns every ID in insertion order.
func (a *Arena[T]) IDs() []ID[T] {
	ids := make([]ID[T], len(a.slots))
	for i := range a.slots {
		ids[i] = ID[T]{idx: uint32(i)}
	}
	return ids
}

func (a *Arena[T]) slot(id ID[T]) *slot[T] {
	if int(id.idx) >= len(a.slots) {
		panic(&IDError{Store: a.name, Index: int(id.idx), Len: len(a.slots)})
	}
	return a.slots[id.idx]
}

// Ref is a live shared handle.
type Ref[T any] struct {
	s     *slot[T]
	id    ID[T]
	arena *Arena[T]
	done  bool
}

// Value returns a copy of the borrowed entity. Writes to the copy never
// reach the arena; mutation goes through GetMut or Update.
func (r *Ref[T]) Value() T {
	return *r.ptr()
}

// ptr exposes the element itself to Read and All. Shallow copies still
// share slices and maps, so callers of those must not write through them.
func (r *Ref[T]) ptr() *T {
	if r.done {
		panic(fmt.Sprintf("store %s: use of released handle #%d", r.arena.name, r.id.idx))
	}
	return &r.s.val
}

// Release ends the borrow. Releasing twice panics.
func (r *Ref[T]) Release() {
	if r.done {
		panic(fmt.Sprintf("store %s: double release of #%d", r.arena.name, r.id.idx))
	}
	r.done = true
	r.s.borrow--
}

// Mut is a live exclusive handle.
type Mut[T any] struct {
	s     *slot[T]
	id    ID[T]
	arena *Arena[T]
	done  bool
}

// Value returns the borrowed entity.
func (m *Mut[T]) Value() *T {
	if m.done {
		panic(fmt.Sprintf("store %s: use of released handle #%d", m.arena.name, m.id.idx))
	}
	return &m.s.val
}

// Release ends the borrow. Releasing twice panics.
func (m *Mut[T]) Release() {
	if m.done {
		panic(fmt.Sprintf("store %s: double release of #%d", m.arena.name, m.id.idx))
	}
	m.done = true
	m.s.borrow = 0
}

// Get acquires a shared handle. Panics if the entity is mutably borrowed.
func (a *Arena[T]) Get(id ID[T]) *Ref[T] {
	s := a.slot(id)
	if s.borrow == exclusive {
		panic(&BorrowError{Store: a.name, Index: id.Index(), Wanted: "shared", Held: "exclusive"})
	}
	s.borrow++
	return &Ref[T]{s: s, id: id, arena: a}
}

// GetMut acquires an exclusive handle. Panics if any handle to the entity is live.
func (a *Arena[T]) GetMut(id ID[T]) *Mut[T] {
	s := a.slot(id)
	switch {
	case s.borrow == exclusive:
		panic(&BorrowError{Store: a.name, Index: id.Index(), Wanted: "exclusive", Held: "exclusive"})
	case s.borrow > 0:
		panic(&BorrowError{Store: a.name, Index: id.Index(), Wanted: "exclusive", Held: "shared"})
	}
	s.borrow = exclusive
	return &Mut[T]{s: s, id: id, arena: a}
}

// Read runs fn with a shared borrow held for its duration. fn receives the
// stored element itself and must not modify it: the shared borrow only keeps
// out exclusive handles, it does not make the element immutable.
func (a *Arena[T]) Read(id ID[T], fn func(*T)) {
	r := a.Get(id)
	defer r.Release()
	fn(r.ptr())
}

// Update runs fn with an exclusive borrow held for its duration.
func (a *Arena[T]) Update(id ID[T], fn func(*T)) {
	m := a.GetMut(id)
	defer m.Release()
	fn(m.Value())
}

// View returns a copy of the entity, taken under a shared borrow.
func (a *Arena[T]) View(id ID[T]) T {
	r := a.Get(id)
	defer r.Release()
	return r.Value()
}

// All yields every entity in insertion order, holding a shared borrow on each
// element while it is yielded. The yielded pointer is the stored element and
// is read-only by contract, exactly as in Read; use Update to change it.
func (a *Arena[T]) All() iter.Seq2[ID[T], *T] {
	return func(yield func(ID[T], *T) bool) {
		for i := 0; i < len(a.slots); i++ {
			id := ID[T]{idx: uint32(i)}
			r := a.Get(id)
			ok := yield(id, r.ptr())
			r.Release()
			if !ok {
				return
			}
		}
	}
}

// MarshalJSON encodes the elements as a JSON array. Borrow state is not encoded.
func (a *Arena[T]) MarshalJSON() ([]byte, error) {
	vals := make([]*T, len(a.slots))
	for i, s := range a.slots {
		vals[i] = &s.val
	}
	return json.Marshal(vals)
}

// UnmarshalJSON replaces the contents with a decoded array.
func (a *Arena[T]) UnmarshalJSON(b []byte) error {
	var vals []T
	if err := json.Unmarshal(b, &vals); err != nil {
		return fmt.Errorf("decode arena %s: %w", a.name, err)
	}
	a.slots = make([]*slot[T], len(vals))
	for i := range vals {
		a.slots[i] = &slot[T]{val: vals[i]}
	}
	return nil
}
