// Package selection implements multi-album selection over the current album list:
// set algebra, range and keyboard selection, validation against a changing list,
// and persistence with expiry.
//
// All functions are copy-on-write; no function mutates its inputs.
package selection

import (
	"slices"

	"github.com/samber/lo"
)

// Set is a set of album ids. Treat values as immutable.
type Set map[string]struct{}

// New returns a set holding ids.
func New(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s Set) Len() int {
	return len(s)
}

// IDs returns the ids sorted, for stable output.
func (s Set) IDs() []string {
	ids := lo.Keys(s)
	slices.Sort(ids)
	return ids
}

// Clone returns a copy of the set. A nil set clones to an empty set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same ids.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Merge returns the union of all sets.
func Merge(sets ...Set) Set {
	out := make(Set)
	for _, s := range sets {
		for id := range s {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersect returns the ids present in every set.
// Zero sets yield an empty set; a single set yields a copy of it.
func Intersect(sets ...Set) Set {
	if len(sets) == 0 {
		return make(Set)
	}
	out := sets[0].Clone()
	for _, s := range sets[1:] {
		for id := range out {
			if !s.Has(id) {
				delete(out, id)
			}
		}
	}
	return out
}

// Subtract returns a \ b.
func Subtract(a, b Set) Set {
	return New(lo.Filter(lo.Keys(a), func(id string, _ int) bool {
		return !b.Has(id)
	})...)
}
