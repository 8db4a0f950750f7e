// Package store provides the append-only entity arenas that hold every world
// entity, and the name-keyed catalogue used for loaded resources.
//
// Access goes through scoped handles. Any number of shared handles or exactly
// one mutable handle may be live per entity; anything else panics at the
// point of violation instead of silently aliasing.
package store

import (
	"fmt"
	"strconv"
)

// ID is an opaque handle into one Arena[T]. IDs are never reused.
type ID[T any] struct {
	idx uint32
}

// Index returns the position of the entity in its arena.
func (id ID[T]) Index() int { return int(id.idx) }

// String renders the raw index.
func (id ID[T]) String() string { return strconv.FormatUint(uint64(id.idx), 10) }

// MarshalText encodes the raw index, so IDs work as JSON map keys.
func (id ID[T]) MarshalText() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(id.idx), 10), nil
}

// UnmarshalText decodes a raw index. Range checks happen in Arena.Validate
// and Arena.Check.
func (id *ID[T]) UnmarshalText(b []byte) error {
	v, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", b, err)
	}
	id.idx = uint32(v)
	return nil
}

// MarshalJSON encodes the ID as a JSON number.
func (id ID[T]) MarshalJSON() ([]byte, error) { return id.MarshalText() }

// UnmarshalJSON decodes a JSON number. encoding/json hands map keys to it
// still quoted, so a quoted number is accepted too.
func (id *ID[T]) UnmarshalJSON(b []byte) error {
	if n := len(b); n >= 2 && b[0] == '"' && b[n-1] == '"' {
		b = b[1 : n-1]
	}
	return id.UnmarshalText(b)
}
