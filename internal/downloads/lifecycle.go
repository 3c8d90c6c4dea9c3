package downloads

import (
	"time"

	"github.com/llehouerou/crate/internal/catalog"
)

// newRecord builds the pending record for album.
func newRecord(id string, album catalog.Album, at time.Time) catalog.DownloadRecord {
	return catalog.DownloadRecord{
		ID:          id,
		AlbumID:     album.ID,
		AlbumTitle:  album.Title,
		ArtistName:  album.Artist,
		Status:      catalog.StatusPending,
		Progress:    0,
		TotalTracks: album.TrackCount(),
		StartTime:   at,
	}
}

// Start inserts one pending record per album id found in albums, keyed by the
// album id. Ids without a matching album are skipped. An active record with the
// same id is left alone; a finished one is replaced by a fresh record at the end.
// Each inserted record counts once towards Active.
func (c Collection) Start(albumIDs []string, albums []catalog.Album, at time.Time) Collection {
	out := c.clone()
	for _, albumID := range albumIDs {
		album, ok := catalog.FindAlbum(albums, albumID)
		if !ok {
			continue
		}
		if existing, ok := out.records[albumID]; ok {
			if existing.Status.IsActive() {
				continue
			}
			out.drop(albumID)
		}
		out.insert(newRecord(albumID, album, at))
	}
	return out
}

// Update shallow-merges p into the record. Unknown ids are left alone. A patch
// moving the record to a terminal status goes through Complete, Fail or Cancel
// so the counters follow; a status change the state machine forbids is ignored
// while the other fields are still merged. Finished records keep their status.
func (c Collection) Update(id string, p Patch, at time.Time) Collection {
	r, ok := c.records[id]
	if !ok {
		return c
	}

	out := c.clone()
	merged := p.apply(r)
	next := r.Status
	if p.Status != nil && r.Status.CanTransition(*p.Status) {
		next = *p.Status
	}
	merged.Status = r.Status
	out.records[id] = merged
	if r.Status.IsTerminal() {
		return out
	}

	switch next {
	case catalog.StatusCompleted:
		return out.Complete(id, at)
	case catalog.StatusFailed:
		errState := merged.Error
		if errState == nil {
			errState = &catalog.ErrorState{Kind: catalog.ErrorUnknown, Message: "download failed", Timestamp: at}
		}
		return out.Fail(id, *errState, at)
	case catalog.StatusCancelled:
		return out.Cancel(id, at)
	}

	merged.Status = next
	out.records[id] = merged
	return out
}

// finish moves an active record to a terminal status. Unknown ids and records
// that already finished are left alone.
func (c Collection) finish(id string, at time.Time, edit func(*catalog.DownloadRecord)) Collection {
	r, ok := c.records[id]
	if !ok || r.Status.IsTerminal() {
		return c
	}
	out := c.clone()
	out.countOut(r.Status)
	edit(&r)
	r.EndTime = at
	out.records[id] = r
	out.countIn(r.Status)
	return out
}

// Complete marks the download finished with full progress, whatever progress
// was last observed.
func (c Collection) Complete(id string, at time.Time) Collection {
	return c.finish(id, at, func(r *catalog.DownloadRecord) {
		r.Status = catalog.StatusCompleted
		r.Progress = 100
		r.CompletedTracks = max(r.CompletedTracks, r.TotalTracks)
		r.EstimatedTimeRemaining = 0
		r.Error = nil
	})
}

// Fail marks the download failed and records why.
func (c Collection) Fail(id string, err catalog.ErrorState, at time.Time) Collection {
	return c.finish(id, at, func(r *catalog.DownloadRecord) {
		r.Status = catalog.StatusFailed
		r.Error = &err
		r.EstimatedTimeRemaining = 0
	})
}

// Cancel marks the download cancelled. Only Active goes down.
func (c Collection) Cancel(id string, at time.Time) Collection {
	return c.finish(id, at, func(r *catalog.DownloadRecord) {
		r.Status = catalog.StatusCancelled
		r.EstimatedTimeRemaining = 0
		r.Speed = 0
		r.Generation++
	})
}

// Remove deletes the record and decrements the one counter matching its status.
func (c Collection) Remove(id string) Collection {
	if !c.Has(id) {
		return c
	}
	out := c.clone()
	out.drop(id)
	return out
}

// RemoveFinished deletes every record in a terminal status.
func (c Collection) RemoveFinished() Collection {
	out := c
	for _, r := range c.Records() {
		if r.Status.IsTerminal() {
			out = out.Remove(r.ID)
		}
	}
	return out
}

// ClearAll empties the collection and zeroes the counters.
func (c Collection) ClearAll() Collection {
	return Collection{rev: c.rev + 1}
}

// Sync applies a fetched status snapshot. It is dropped when the record no
// longer exists, already finished, or has moved to another generation since
// the fetch was scheduled.
func (c Collection) Sync(id string, generation uint64, snap catalog.DownloadRecord, at time.Time) Collection {
	r, ok := c.records[id]
	if !ok || r.Status.IsTerminal() || r.Generation != generation {
		return c
	}

	p := PatchFrom(snap)
	if snap.Status == catalog.StatusFailed && snap.Error == nil {
		p.Error = &catalog.ErrorState{
			Kind:      catalog.ErrorAPI,
			Message:   "download failed on the server",
			Timestamp: at,
		}
	}
	return c.Update(id, p, at)
}
