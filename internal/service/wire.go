package service

import (
	"strings"
	"time"

	"github.com/llehouerou/crate/internal/catalog"
)

type searchResponse struct {
	Artists []catalog.Artist `json:"artists"`
}

type initiateRequest struct {
	AlbumIDs []string `json:"albumIds"`
	Options
}

// downloadStatus is the status payload of GET /downloads/{id}.
type downloadStatus struct {
	ID              string  `json:"id"`
	AlbumID         string  `json:"albumId"`
	AlbumTitle      string  `json:"albumTitle"`
	ArtistName      string  `json:"artistName"`
	Status          string  `json:"status"`
	Progress        float64 `json:"progress"`
	CurrentTrack    string  `json:"currentTrack"`
	TotalTracks     int     `json:"totalTracks"`
	CompletedTracks int     `json:"completedTracks"`
	Error           string  `json:"error"`
	StartTime       int64   `json:"startTime"`              // unix milliseconds
	EndTime         int64   `json:"endTime"`                // unix milliseconds
	ETA             float64 `json:"estimatedTimeRemaining"` // seconds
	Speed           float64 `json:"speed"`                  // bytes per second
}

func (d downloadStatus) record(now time.Time) catalog.DownloadRecord {
	r := catalog.DownloadRecord{
		ID:                     d.ID,
		AlbumID:                d.AlbumID,
		AlbumTitle:             d.AlbumTitle,
		ArtistName:             d.ArtistName,
		Status:                 ParseStatus(d.Status),
		Progress:               catalog.ClampProgress(d.Progress),
		CurrentTrack:           d.CurrentTrack,
		TotalTracks:            d.TotalTracks,
		CompletedTracks:        d.CompletedTracks,
		EstimatedTimeRemaining: time.Duration(d.ETA * float64(time.Second)),
		Speed:                  d.Speed,
	}
	if d.StartTime > 0 {
		r.StartTime = time.UnixMilli(d.StartTime)
	}
	if d.EndTime > 0 {
		r.EndTime = time.UnixMilli(d.EndTime)
	}
	if d.Error != "" {
		r.Error = &catalog.ErrorState{
			Kind:      catalog.ErrorAPI,
			Message:   d.Error,
			Timestamp: now,
		}
	}
	return r
}

// ParseStatus maps a service state string to a Status. States can be compound
// like "Completed, Succeeded" or "Queued, Remotely"; unknown states read as pending.
func ParseStatus(state string) catalog.Status {
	s := strings.ToLower(state)
	switch {
	case strings.Contains(s, "cancel"):
		return catalog.StatusCancelled
	case strings.Contains(s, "error") || strings.Contains(s, "fail") ||
		strings.Contains(s, "timedout") || strings.Contains(s, "rejected") ||
		strings.Contains(s, "abort"):
		return catalog.StatusFailed
	case strings.Contains(s, "complet") || strings.Contains(s, "succeed"):
		return catalog.StatusCompleted
	case strings.Contains(s, "inprogress") || strings.Contains(s, "downloading") ||
		strings.Contains(s, "initializ") || strings.Contains(s, "requested"):
		return catalog.StatusDownloading
	case strings.Contains(s, "queue"):
		return catalog.StatusQueued
	default:
		return catalog.StatusPending
	}
}
