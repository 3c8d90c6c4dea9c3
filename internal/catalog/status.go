package catalog

import "time"

// Status is the lifecycle state of a download.
type Status string

const (
	StatusPending     Status = "pending"
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsActive returns true for pending, queued and downloading.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusQueued || s == StatusDownloading
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	return s.IsActive() || s.IsTerminal()
}

// rank orders the non-terminal states along the forward path.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusQueued:
		return 1
	case StatusDownloading:
		return 2
	default:
		return 3
	}
}

// CanTransition reports whether the state machine allows moving from s to next.
//
//	pending → queued → downloading → completed | failed
//	pending | queued | downloading → cancelled
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	switch next {
	case StatusCancelled:
		return true
	case StatusCompleted, StatusFailed:
		return true
	default:
		return next.rank() >= s.rank()
	}
}

// DownloadRecord is the client-side view of one album download.
type DownloadRecord struct {
	ID              string
	AlbumID         string
	AlbumTitle      string
	ArtistName      string
	Status          Status
	Progress        float64 // 0 to 100
	CurrentTrack    string
	TotalTracks     int
	CompletedTracks int
	Error           *ErrorState
	StartTime       time.Time
	EndTime         time.Time // zero until terminal

	EstimatedTimeRemaining time.Duration // zero if unknown
	Speed                  float64       // bytes per second, zero if unknown

	// Generation is bumped whenever the record's identity or liveness changes
	// (reconcile, cancel). Poll results stamped with an older generation are dropped.
	Generation uint64
}

// Duration returns how long the download ran, or has been running as of now.
func (r DownloadRecord) Duration(now time.Time) time.Duration {
	if r.StartTime.IsZero() {
		return 0
	}
	if !r.EndTime.IsZero() {
		return r.EndTime.Sub(r.StartTime)
	}
	return now.Sub(r.StartTime)
}

// ClampProgress bounds p to [0, 100].
func ClampProgress(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
