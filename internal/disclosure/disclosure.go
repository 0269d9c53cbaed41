// Package disclosure tracks which collapsible items are expanded.
package disclosure

import "slices"

// Set is a membership set of expanded item keys. It has no ordering
// semantics; the zero value is not usable, use New.
type Set struct {
	keys map[string]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{keys: make(map[string]struct{})}
}

// Toggle flips the membership of key and returns whether it is now expanded.
func (s *Set) Toggle(key string) bool {
	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// IsExpanded reports whether key is expanded.
func (s *Set) IsExpanded(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Keys returns the expanded keys, sorted.
func (s *Set) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of expanded keys.
func (s *Set) Len() int { return len(s.keys) }

// Reset collapses everything.
func (s *Set) Reset() { clear(s.keys) }
