// Package dedupe holds the per-segment set of distinct artifacts
package dedupe

import "indexcrawler/internal/core/artifact"

// Set keeps the first artifact seen for each identity, in insertion order.
// It is not safe for concurrent use; one Set belongs to one crawl
type Set struct {
	seen  map[artifact.Identity]struct{}
	items []artifact.Artifact
	dups  int
}

// New returns an empty Set; sizeHint preallocates when known
func New(sizeHint int) *Set {
	return &Set{
		seen:  make(map[artifact.Identity]struct{}, max(sizeHint, 0)),
		items: make([]artifact.Artifact, 0, max(sizeHint, 0)),
	}
}

// Add inserts a unless an artifact with the same identity is present.
// It reports whether a was inserted; a rejected add counts as a duplicate
func (s *Set) Add(a artifact.Artifact) bool {
	k := a.Key()
	if _, ok := s.seen[k]; ok {
		s.dups++
		return false
	}
	s.seen[k] = struct{}{}
	s.items = append(s.items, a)
	return true
}

// Contains reports whether an artifact with a's identity is present
func (s *Set) Contains(a artifact.Artifact) bool {
	_, ok := s.seen[a.Key()]
	return ok
}

// Len is the number of distinct artifacts
func (s *Set) Len() int { return len(s.items) }

// Duplicates is the number of rejected adds
func (s *Set) Duplicates() int { return s.dups }

// Items returns the distinct artifacts in first-seen order. The slice is owned by the Set
func (s *Set) Items() []artifact.Artifact { return s.items }
