// Package classes manages the ordered class-name list whose positions are the class
// indices written into label files.
package classes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyName is returned when adding a blank class name.
var ErrEmptyName = errors.New("class name is empty")

// DefaultNames is the list used before any manifest is loaded.
var DefaultNames = []string{"Class 1", "Class 2"}

// List is an ordered sequence of class names. The zero value is an empty list.
//
// List is not safe for concurrent use; the owning workspace serializes access.
type List struct {
	names []string
}

// New returns a list holding names in order.
func New(names ...string) *List {
	return &List{names: append([]string(nil), names...)}
}

// Default returns a list holding DefaultNames.
func Default() *List {
	return New(DefaultNames...)
}

// Names returns a copy of the class names.
func (l *List) Names() []string {
	return append([]string(nil), l.names...)
}

// Len returns the number of classes.
func (l *List) Len() int {
	return len(l.names)
}

// Index returns the position of the first class called name.
func (l *List) Index(name string) (int, bool) {
	for i, n := range l.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Name returns the class at index i.
func (l *List) Name(i int) (string, bool) {
	if i < 0 || i >= len(l.names) {
		return "", false
	}
	return l.names[i], true
}

// Add appends name after trimming surrounding whitespace and returns its index.
func (l *List) Add(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, ErrEmptyName
	}
	l.names = append(l.names, name)
	return len(l.names) - 1, nil
}

// Remove deletes the class at index i. Indices after i shift down by one.
func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.names) {
		return fmt.Errorf("class index %d out of range [0,%d)", i, len(l.names))
	}
	l.names = append(l.names[:i], l.names[i+1:]...)
	return nil
}

// Move swaps the class at i with its neighbour at i+delta, for delta of -1 or +1.
// It reports false and leaves the list unchanged when either index is out of range.
func (l *List) Move(i, delta int) bool {
	j := i + delta
	if (delta != -1 && delta != 1) || i < 0 || i >= len(l.names) || j < 0 || j >= len(l.names) {
		return false
	}
	l.names[i], l.names[j] = l.names[j], l.names[i]
	return true
}

// Replace swaps in a new set of names.
func (l *List) Replace(names []string) {
	l.names = append([]string(nil), names...)
}
