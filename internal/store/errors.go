package store

import "fmt"

// BorrowError is the panic value for an aliasing violation.
type BorrowError struct {
	Store  string
	Index  int
	Wanted string // "shared" or "exclusive"
	Held   string
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("store %s: cannot borrow #%d as %s while %s borrow is live",
		e.Store, e.Index, e.Wanted, e.Held)
}

// IDError is the panic value for an index outside the arena.
type IDError struct {
	Store string
	Index int
	Len   int
}

func (e *IDError) Error() string {
	return fmt.Sprintf("store %s: invalid id #%d (len %d)", e.Store, e.Index, e.Len)
}

// MissingResourceError is the panic value for an unknown catalogue key.
type MissingResourceError struct {
	Store string
	Name  string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("store %s: missing resource %q", e.Store, e.Name)
}
