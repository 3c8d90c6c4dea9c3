package selection

import (
	"github.com/samber/lo"

	"github.com/llehouerou/crate/internal/catalog"
)

// AllState summarizes a selection relative to the album list.
type AllState string

const (
	AllNone AllState = "none"
	AllSome AllState = "some"
	AllAll  AllState = "all"
)

// StateOf derives the select-all state: none when empty, all when the set is as
// large as the album list, some otherwise.
func StateOf(s Set, albums []catalog.Album) AllState {
	switch {
	case len(s) == 0:
		return AllNone
	case len(s) == len(albums):
		return AllAll
	default:
		return AllSome
	}
}

// Toggle adds id when absent and removes it when present.
func Toggle(s Set, id string) Set {
	out := s.Clone()
	if out.Has(id) {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// SetSelected adds or removes id. Idempotent.
func SetSelected(s Set, id string, selected bool) Set {
	if s.Has(id) == selected {
		return s.Clone()
	}
	return Toggle(s, id)
}

// SelectAll selects every album in the list.
func SelectAll(albums []catalog.Album) Set {
	return New(catalog.AlbumIDs(albums)...)
}

// DeselectAll returns an empty selection.
func DeselectAll() Set {
	return make(Set)
}

// HandleSelectAllToggle cycles the tri-state checkbox: none or some selects all,
// all deselects all.
func HandleSelectAllToggle(s Set, albums []catalog.Album, state AllState) Set {
	if state == AllAll {
		return DeselectAll()
	}
	return SelectAll(albums)
}

// SelectByIndices selects the albums at the given positions.
// Out-of-range positions are ignored.
func SelectByIndices(albums []catalog.Album, indices []int) Set {
	out := make(Set, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(albums) {
			out[albums[i].ID] = struct{}{}
		}
	}
	return out
}

// SelectByRange selects the inclusive range between i and j in either order,
// clamped to the list bounds.
func SelectByRange(albums []catalog.Album, i, j int) Set {
	return NewIndex(albums).Range(i, j)
}

// SelectByFilter selects the albums matching pred.
func SelectByFilter(albums []catalog.Album, pred func(catalog.Album) bool) Set {
	return New(lo.FilterMap(albums, func(a catalog.Album, _ int) (string, bool) {
		return a.ID, pred(a)
	})...)
}

// Validation partitions a selection against the album list.
// Valid and Invalid are disjoint and their union is the input selection.
type Validation struct {
	Valid   Set
	Invalid Set
}

// IsValid reports whether every selected id is still in the list.
func (v Validation) IsValid() bool {
	return len(v.Invalid) == 0
}

// Validate splits s into ids present in albums and ids that are not.
func Validate(s Set, albums []catalog.Album) Validation {
	ix := NewIndex(albums)
	v := Validation{Valid: make(Set), Invalid: make(Set)}
	for id := range s {
		if ix.Contains(id) {
			v.Valid[id] = struct{}{}
		} else {
			v.Invalid[id] = struct{}{}
		}
	}
	return v
}

// Cleanup drops ids that are no longer in the album list.
func Cleanup(s Set, albums []catalog.Album) Set {
	return Validate(s, albums).Valid
}

// SelectedAlbums returns the selected albums in list order.
func SelectedAlbums(s Set, albums []catalog.Album) []catalog.Album {
	return lo.Filter(albums, func(a catalog.Album, _ int) bool {
		return s.Has(a.ID)
	})
}
