package store

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/downloads"
	"github.com/llehouerou/crate/internal/selection"
)

// Listener is called after a dispatched action changed the state.
type Listener func(prev, next *State)

// Store owns the current state. All changes go through Dispatch.
type Store struct {
	mu        sync.RWMutex
	state     *State
	listeners map[int]Listener
	nextID    int
	logger    zerolog.Logger
}

// New creates a store. A nil initial state starts from NewState.
func New(initial *State, logger zerolog.Logger) *Store {
	if initial == nil {
		initial = NewState()
	}
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// State returns the current state. The returned value must not be modified.
func (s *Store) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies a and notifies listeners when the state changed.
// Actions are applied in the order Dispatch is called.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	if next == prev {
		s.mu.Unlock()
		return
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for id := range s.nextID {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	s.logger.Trace().Type("action", a).Msg("state changed")
	for _, l := range listeners {
		l(prev, next)
	}
}

// Subscribe registers l and returns the function that removes it.
// Listeners run in subscription order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Search returns the search sub-state.
func (s *Store) Search() SearchState {
	return s.State().Search
}

// Selection returns the selection sub-state.
func (s *Store) Selection() SelectionState {
	return s.State().Selection
}

// Downloads returns the download collection.
func (s *Store) Downloads() downloads.Collection {
	return s.State().Downloads
}

// Error returns the global error, or nil.
func (s *Store) Error() *catalog.ErrorState {
	return s.State().Error
}

// Notifications returns the pending notifications, oldest first.
func (s *Store) Notifications() []catalog.Notification {
	return s.State().Notifications
}

// SelectedAlbums returns the selected albums in album list order.
func (s *Store) SelectedAlbums() []catalog.Album {
	return s.State().SelectedAlbums()
}

// SelectedAlbums returns the selected albums in album list order.
func (st *State) SelectedAlbums() []catalog.Album {
	return selection.SelectedAlbums(st.Selection.Selected, st.Search.Albums)
}

// IsSelected reports whether the album is selected.
func (st *State) IsSelected(albumID string) bool {
	return st.Selection.Selected.Has(albumID)
}

// ActiveDownloads returns the records still in progress.
func (st *State) ActiveDownloads() []catalog.DownloadRecord {
	var out []catalog.DownloadRecord
	for _, r := range st.Downloads.Records() {
		if r.Status.IsActive() {
			out = append(out, r)
		}
	}
	return out
}
