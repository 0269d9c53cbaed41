// Package ids generates identifiers for sub-list entries and sessions.
package ids

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces identifiers that are never reused within a process.
type Generator interface {
	NewID() string
}

// UUID generates random v4 UUIDs.
type UUID struct{}

// NewID implements Generator.
func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence is a monotonic counter. Safe for concurrent use.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence returns a Sequence whose ids look like prefix-1, prefix-2, ...
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewID implements Generator.
func (s *Sequence) NewID() string {
	n := s.n.Add(1)
	if s.prefix == "" {
		return strconv.FormatUint(n, 10)
	}
	return s.prefix + "-" + strconv.FormatUint(n, 10)
}
