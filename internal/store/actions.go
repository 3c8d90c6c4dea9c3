package store

import (
	"time"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/downloads"
	"github.com/llehouerou/crate/internal/selection"
)

// Action is the closed set of state changes. Types outside this package
// cannot implement it.
type Action interface {
	action()
}

// Search actions.

// SearchStarted marks a search for Query as running.
type SearchStarted struct {
	Query string
}

// SearchSucceeded replaces the search results.
type SearchSucceeded struct {
	Results catalog.SearchResults
}

// SearchFailed clears the results and sets the global error.
type SearchFailed struct {
	Err catalog.ErrorState
}

// ArtistSelected switches to another artist. Its albums arrive with AlbumsSet.
type ArtistSelected struct {
	Artist catalog.Artist
}

// AlbumsSet replaces the displayed album list.
type AlbumsSet struct {
	Albums []catalog.Album
}

// SearchCleared resets the whole search state.
type SearchCleared struct{}

func (SearchStarted) action()   {}
func (SearchSucceeded) action() {}
func (SearchFailed) action()    {}
func (ArtistSelected) action()  {}
func (AlbumsSet) action()       {}
func (SearchCleared) action()   {}

// Selection actions.

type SelectionToggled struct {
	AlbumID string
}

type SelectionAllSelected struct{}

type SelectionAllDeselected struct{}

// SelectionSetOne selects or deselects a single album.
type SelectionSetOne struct {
	AlbumID  string
	Selected bool
}

type SelectionCleared struct{}

// SelectAllToggled drives the select-all checkbox from its current state.
type SelectAllToggled struct{}

// SelectionReplaced installs a selection computed by the selection engine.
// Ids not in the album list are dropped.
type SelectionReplaced struct {
	Selection selection.Set
}

func (SelectionToggled) action()       {}
func (SelectionAllSelected) action()   {}
func (SelectionAllDeselected) action() {}
func (SelectionSetOne) action()        {}
func (SelectionCleared) action()       {}
func (SelectAllToggled) action()       {}
func (SelectionReplaced) action()      {}

// Download actions.

// DownloadsStarted creates pending records for the given albums of the
// current album list. With a Token they are created under temporary ids
// until DownloadsInitiated or DownloadsInitiationFailed arrives.
type DownloadsStarted struct {
	Token    string
	AlbumIDs []string
	At       time.Time
}

// DownloadsInitiated confirms the batch Token under DownloadID.
type DownloadsInitiated struct {
	Token      string
	DownloadID string
}

// DownloadsInitiationFailed rolls back the batch Token. A non-nil Err is
// also set as the global error.
type DownloadsInitiationFailed struct {
	Token string
	Err   *catalog.ErrorState
}

type DownloadUpdated struct {
	ID    string
	Patch downloads.Patch
	At    time.Time
}

// DownloadSynced applies a polled status snapshot fetched for Generation.
type DownloadSynced struct {
	ID         string
	Generation uint64
	Record     catalog.DownloadRecord
	At         time.Time
}

type DownloadCompleted struct {
	ID string
	At time.Time
}

type DownloadFailed struct {
	ID  string
	Err catalog.ErrorState
	At  time.Time
}

type DownloadCancelled struct {
	ID string
	At time.Time
}

type DownloadRemoved struct {
	ID string
}

// DownloadsFinishedCleared removes every finished record.
type DownloadsFinishedCleared struct{}

type DownloadsCleared struct{}

func (DownloadsStarted) action()          {}
func (DownloadsInitiated) action()        {}
func (DownloadsInitiationFailed) action() {}
func (DownloadUpdated) action()           {}
func (DownloadSynced) action()            {}
func (DownloadCompleted) action()         {}
func (DownloadFailed) action()            {}
func (DownloadCancelled) action()         {}
func (DownloadRemoved) action()           {}
func (DownloadsFinishedCleared) action()  {}
func (DownloadsCleared) action()          {}

// Global actions.

type LoadingSet struct {
	Loading bool
}

type ErrorSet struct {
	Err catalog.ErrorState
}

type ErrorCleared struct{}

func (LoadingSet) action()   {}
func (ErrorSet) action()     {}
func (ErrorCleared) action() {}

// Notification actions.

type NotificationAdded struct {
	Notification catalog.Notification
}

type NotificationRemoved struct {
	ID string
}

type NotificationsCleared struct{}

func (NotificationAdded) action()    {}
func (NotificationRemoved) action()  {}
func (NotificationsCleared) action() {}
