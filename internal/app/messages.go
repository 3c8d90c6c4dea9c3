// Package app runs the bubbletea program driving search, selection and
// downloads through the state store.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/service"
)

// Message category interfaces for type-based routing in Update().
// External messages (from other packages) cannot implement these interfaces,
// so they are handled separately in the Update() switch.

// SearchMessage is implemented by messages answering search and album lookups.
type SearchMessage interface {
	tea.Msg
	searchMessage()
}

// DownloadMessage is implemented by messages answering download service calls.
type DownloadMessage interface {
	tea.Msg
	downloadMessage()
}

// SearchResultMsg carries the artists found for Query.
type SearchResultMsg struct {
	Query   string
	Artists []catalog.Artist
	Err     error
}

func (SearchResultMsg) searchMessage() {}

// AlbumsLoadedMsg carries the albums of ArtistID.
type AlbumsLoadedMsg struct {
	ArtistID string
	Albums   []catalog.Album
	Err      error
}

func (AlbumsLoadedMsg) searchMessage() {}

// DownloadInitiatedMsg answers the download request sent for batch Token.
type DownloadInitiatedMsg struct {
	Token      string
	AlbumID    string
	Initiation service.Initiation
	Err        error
}

func (DownloadInitiatedMsg) downloadMessage() {}

// DownloadCancelResultMsg answers a cancel request.
type DownloadCancelResultMsg struct {
	ID  string
	Err error
}

func (DownloadCancelResultMsg) downloadMessage() {}

// CancelAllResultMsg answers a cancel-all request. Failed lists the ids the
// service refused to cancel.
type CancelAllResultMsg struct {
	Cancelled int
	Failed    []string
	Err       error
}

func (CancelAllResultMsg) downloadMessage() {}

// NotificationExpiredMsg is sent when an auto-closing notification times out.
type NotificationExpiredMsg struct {
	ID string
}

// HistoryLoadedMsg carries the stored search history.
type HistoryLoadedMsg struct {
	Queries []string
}

// clockMsg refreshes elapsed times in the downloads view.
type clockMsg time.Time
