// Package catalog defines the artist, album and download types shared by the
// selection, download and store packages.
package catalog

import "time"

// Artist is an artist returned by a catalog search.
type Artist struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Track is a single track of an album.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	DiscNumber  int    `json:"discNumber,omitempty"`
	Duration    int    `json:"duration,omitempty"` // seconds
}

// Album is an album in the currently displayed album list.
// Identity is ID.
type Album struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Cover       string  `json:"cover"`
	ReleaseDate string  `json:"releaseDate"`
	Tracks      []Track `json:"tracks"`
	TotalTracks int     `json:"totalTracks,omitempty"`
	Year        int     `json:"year,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Type        string  `json:"type,omitempty"`
	ArtistID    string  `json:"artistId,omitempty"`
}

// TrackCount returns the declared track count, falling back to the track list length.
func (a Album) TrackCount() int {
	if a.TotalTracks > 0 {
		return a.TotalTracks
	}
	return len(a.Tracks)
}

// SearchResults is replaced wholesale on each successful search.
type SearchResults struct {
	Artists []Artist
	Albums  []Album
	Tracks  []Track
}

// IsEmpty reports whether the results hold nothing.
func (r SearchResults) IsEmpty() bool {
	return len(r.Artists) == 0 && len(r.Albums) == 0 && len(r.Tracks) == 0
}

// AlbumIDs returns the ids of albums in list order.
func AlbumIDs(albums []Album) []string {
	ids := make([]string, len(albums))
	for i := range albums {
		ids[i] = albums[i].ID
	}
	return ids
}

// FindAlbum returns the album with the given id.
func FindAlbum(albums []Album, id string) (Album, bool) {
	for i := range albums {
		if albums[i].ID == id {
			return albums[i], true
		}
	}
	return Album{}, false
}

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is user-visible feedback. Never persisted.
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	Timestamp time.Time
	AutoClose bool
	Duration  time.Duration
}
