package selection

import "github.com/llehouerou/crate/internal/catalog"

// Index stores albums in list order with an id to position table, so range and
// keyboard operations resolve positions without rescanning the list.
type Index struct {
	albums []catalog.Album
	pos    map[string]int
}

// NewIndex builds an index over albums. The slice is not copied; callers must not
// modify it while the index is in use.
func NewIndex(albums []catalog.Album) *Index {
	pos := make(map[string]int, len(albums))
	for i := range albums {
		if _, dup := pos[albums[i].ID]; !dup {
			pos[albums[i].ID] = i
		}
	}
	return &Index{albums: albums, pos: pos}
}

// Len returns the number of albums.
func (ix *Index) Len() int {
	return len(ix.albums)
}

// Position returns the list position of id.
func (ix *Index) Position(id string) (int, bool) {
	i, ok := ix.pos[id]
	return i, ok
}

// Contains reports whether id is in the album list.
func (ix *Index) Contains(id string) bool {
	_, ok := ix.pos[id]
	return ok
}

// ID returns the album id at position i.
func (ix *Index) ID(i int) string {
	return ix.albums[i].ID
}

// Range returns the ids in the inclusive range between i and j. Both ends are
// clamped to the list bounds first.
func (ix *Index) Range(i, j int) Set {
	out := make(Set)
	n := len(ix.albums)
	if n == 0 {
		return out
	}
	clamp := func(k int) int { return min(max(k, 0), n-1) }
	low, high := clamp(min(i, j)), clamp(max(i, j))
	for k := low; k <= high; k++ {
		out[ix.albums[k].ID] = struct{}{}
	}
	return out
}
