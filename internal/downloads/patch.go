package downloads

import (
	"time"

	"github.com/llehouerou/crate/internal/catalog"
)

// Patch holds the fields to merge into a record. Nil fields are left unchanged.
type Patch struct {
	Status                 *catalog.Status
	Progress               *float64
	CurrentTrack           *string
	TotalTracks            *int
	CompletedTracks        *int
	Error                  *catalog.ErrorState
	EstimatedTimeRemaining *time.Duration
	Speed                  *float64
}

// PatchFrom builds a patch carrying every progress field of snap.
func PatchFrom(snap catalog.DownloadRecord) Patch {
	p := Patch{
		Progress:               &snap.Progress,
		CompletedTracks:        &snap.CompletedTracks,
		EstimatedTimeRemaining: &snap.EstimatedTimeRemaining,
		Speed:                  &snap.Speed,
		Error:                  snap.Error,
	}
	if snap.Status.IsValid() {
		p.Status = &snap.Status
	}
	if snap.CurrentTrack != "" {
		p.CurrentTrack = &snap.CurrentTrack
	}
	if snap.TotalTracks > 0 {
		p.TotalTracks = &snap.TotalTracks
	}
	return p
}

func (p Patch) apply(r catalog.DownloadRecord) catalog.DownloadRecord {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Progress != nil {
		r.Progress = catalog.ClampProgress(*p.Progress)
	}
	if p.CurrentTrack != nil {
		r.CurrentTrack = *p.CurrentTrack
	}
	if p.TotalTracks != nil {
		r.TotalTracks = *p.TotalTracks
	}
	if p.CompletedTracks != nil {
		r.CompletedTracks = *p.CompletedTracks
	}
	if p.Error != nil {
		e := *p.Error
		r.Error = &e
	}
	if p.EstimatedTimeRemaining != nil {
		r.EstimatedTimeRemaining = *p.EstimatedTimeRemaining
	}
	if p.Speed != nil {
		r.Speed = *p.Speed
	}
	return r
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
