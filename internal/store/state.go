// Package store holds the application state and the reducer that changes it.
package store

import (
	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/downloads"
	"github.com/llehouerou/crate/internal/selection"
)

// SearchState is the search and artist browsing sub-state.
type SearchState struct {
	Query   string
	Results catalog.SearchResults
	Artist  *catalog.Artist // nil until an artist is selected
	Albums  []catalog.Album
	Loading bool
}

// SelectionState is the set of selected albums and the derived select-all state.
type SelectionState struct {
	Selected  selection.Set
	SelectAll selection.AllState
}

// State is the whole application state. A *State is never modified once
// published; the reducer returns a new one on every change.
type State struct {
	Search        SearchState
	Selection     SelectionState
	Downloads     downloads.Collection
	Loading       bool
	Error         *catalog.ErrorState
	Notifications []catalog.Notification
}

// NewState returns the initial state.
func NewState() *State {
	return &State{
		Selection: SelectionState{Selected: selection.New(), SelectAll: selection.AllNone},
		Downloads: downloads.New(),
	}
}
