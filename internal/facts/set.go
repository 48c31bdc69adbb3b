// Package facts holds the append-only fact collections replicated by the
// gossip nodes. A fact is any comparable value; sets never shrink.
package facts

import (
	"math/rand"
	"slices"
)

// Set is an unordered collection of distinct facts. It is not safe for
// concurrent use; the node loop is its only caller.
type Set[F comparable] struct {
	items map[F]struct{}
}

func New[F comparable](fs ...F) *Set[F] {
	s := &Set[F]{items: make(map[F]struct{}, len(fs))}
	for _, f := range fs {
		s.items[f] = struct{}{}
	}
	return s
}

// Insert adds f and reports whether it was new.
func (s *Set[F]) Insert(f F) bool {
	if _, ok := s.items[f]; ok {
		return false
	}
	s.items[f] = struct{}{}
	return true
}

// Merge inserts every fact in fs and returns how many were new.
func (s *Set[F]) Merge(fs []F) int {
	added := 0
	for _, f := range fs {
		if s.Insert(f) {
			added++
		}
	}
	return added
}

func (s *Set[F]) Contains(f F) bool {
	_, ok := s.items[f]
	return ok
}

func (s *Set[F]) Len() int { return len(s.items) }

// All returns a copy of the facts in unspecified order.
func (s *Set[F]) All() []F {
	out := make([]F, 0, len(s.items))
	for f := range s.items {
		out = append(out, f)
	}
	return out
}

// Sorted returns a copy of the facts ordered by cmp.
func (s *Set[F]) Sorted(cmp func(a, b F) int) []F {
	out := s.All()
	slices.SortFunc(out, cmp)
	return out
}

// Missing returns the facts of s that other does not contain.
func (s *Set[F]) Missing(other *Set[F]) []F {
	var out []F
	for f := range s.items {
		if !other.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same facts.
func (s *Set[F]) Equal(other *Set[F]) bool {
	if s.Len() != other.Len() {
		return false
	}
	for f := range s.items {
		if !other.Contains(f) {
			return false
		}
	}
	return true
}

// Sample picks min(k, Len()) distinct facts uniformly at random. The shuffle
// starts from the order given by cmp, so a seeded rng yields the same sample
// for the same set.
func (s *Set[F]) Sample(rng *rand.Rand, k int, cmp func(a, b F) int) []F {
	if k <= 0 {
		return nil
	}
	all := s.Sorted(cmp)
	if k >= len(all) {
		return all
	}
	// partial Fisher-Yates: only the first k slots need shuffling
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(all)-i)
		all[i], all[j] = all[j], all[i]
	}
	return all[:k]
}
