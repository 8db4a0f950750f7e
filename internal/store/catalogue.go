package store

import "iter"

// Catalogue is an arena whose entries are also addressable by name.
// Entries are registered at load time, only through Add; lookups of unknown
// names are fatal.
type Catalogue[T any] struct {
	arena  *Arena[T]
	byName map[string]ID[T]
	names  []string
}

// NewCatalogue creates an empty catalogue.
func NewCatalogue[T any](name string) *Catalogue[T] {
	return &Catalogue[T]{
		arena:  NewArena[T](name),
		byName: make(map[string]ID[T]),
	}
}

// Read-only access, forwarded to the arena.

func (c *Catalogue[T]) Len() int { return c.arena.Len() }
func (c *Catalogue[T]) IDs() []ID[T] { return c.arena.IDs() }
func (c *Catalogue[T]) Validate(raw int) (ID[T], bool) { return c.arena.Validate(raw) }
func (c *Catalogue[T]) Check(id ID[T]) error { return c.arena.Check(id) }
func (c *Catalogue[T]) Get(id ID[T]) *Ref[T] { return c.arena.Get(id) }
func (c *Catalogue[T]) Read(id ID[T], fn func(*T)) { c.arena.Read(id, fn) }
func (c *Catalogue[T]) View(id ID[T]) T { return c.arena.View(id) }
func (c *Catalogue[T]) All() iter.Seq2[ID[T], *T] { return c.arena.All() }

// Add registers v under name. A duplicate name is a content error.
func (c *Catalogue[T]) Add(name string, v T) ID[T] {
	if _, dup := c.byName[name]; dup {
		panic("store " + c.arena.name + ": duplicate resource " + name)
	}
	id := c.arena.Add(v)
	c.byName[name] = id
	c.names = append(c.names, name)
	return id
}

// IDOf returns the ID registered under name. Unknown names panic.
func (c *Catalogue[T]) IDOf(name string) ID[T] {
	id, ok := c.byName[name]
	if !ok {
		panic(&MissingResourceError{Store: c.arena.name, Name: name})
	}
	return id
}

// Has reports whether name is registered.
func (c *Catalogue[T]) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Find returns a copy of the entry registered under name. Unknown names panic.
func (c *Catalogue[T]) Find(name string) T {
	return c.View(c.IDOf(name))
}

// Name returns the key an ID was registered under.
func (c *Catalogue[T]) Name(id ID[T]) string {
	c.arena.slot(id)
	return c.names[id.idx]
}

// Names returns every key in registration order.
func (c *Catalogue[T]) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
