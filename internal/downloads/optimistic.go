package downloads

import (
	"strings"
	"time"

	"github.com/llehouerou/crate/internal/catalog"
)

const tempPrefix = "tmp:"

// pendingBatch remembers an unconfirmed initiation: the collection before the
// optimistic insert and the revision right after it.
type pendingBatch struct {
	before Collection
	after  uint64
	ids    []string
}

// TempID returns the temporary record id for albumID within the batch token.
func TempID(token, albumID string) string {
	return tempPrefix + token + ":" + albumID
}

// IsTemp reports whether id is a temporary id.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, tempPrefix)
}

// HasToken reports whether id is a temporary id issued for token.
func HasToken(id, token string) bool {
	return strings.HasPrefix(id, tempPrefix+token+":")
}

// StartOptimistic inserts pending records under temporary ids before the
// service has assigned the real download id, and remembers the prior state
// under token until Reconcile or Rollback.
func (c Collection) StartOptimistic(token string, albumIDs []string, albums []catalog.Album, at time.Time) Collection {
	if token == "" {
		return c
	}
	if _, dup := c.pending[token]; dup {
		return c
	}

	out := c.clone()
	var ids []string
	for _, albumID := range albumIDs {
		album, ok := catalog.FindAlbum(albums, albumID)
		if !ok {
			continue
		}
		id := TempID(token, albumID)
		if out.Has(id) {
			continue
		}
		out.insert(newRecord(id, album, at))
		ids = append(ids, id)
	}
	out.pending[token] = pendingBatch{before: c, after: out.rev, ids: ids}
	return out
}

// IsPending reports whether token still awaits confirmation.
func (c Collection) IsPending(token string) bool {
	_, ok := c.pending[token]
	return ok
}

// Reconcile rewrites the records of batch token to the authoritative id in
// place, keeping their slot and observed progress. The first record takes
// downloadID; further records of the same batch take downloadID/albumID. A
// record whose new id is already taken is dropped instead.
func (c Collection) Reconcile(token, downloadID string) Collection {
	if _, ok := c.pending[token]; !ok || downloadID == "" {
		return c
	}

	out := c.clone()
	delete(out.pending, token)

	first := true
	for i := 0; i < len(out.order); i++ {
		oldID := out.order[i]
		if !HasToken(oldID, token) {
			continue
		}
		r := out.records[oldID]
		newID := downloadID
		if !first {
			newID = downloadID + "/" + r.AlbumID
		}
		first = false

		if out.Has(newID) {
			out.drop(oldID)
			i--
			continue
		}

		delete(out.records, oldID)
		r.ID = newID
		r.Generation++
		out.records[newID] = r
		out.order[i] = newID
	}
	return out
}

// Rollback undoes the optimistic insert of batch token. When nothing else has
// touched the collection since, the saved snapshot is restored as is; otherwise
// only the batch's records are removed together with their counter share. In
// both cases the failed initiation leaves the counters as they were.
func (c Collection) Rollback(token string) Collection {
	b, ok := c.pending[token]
	if !ok {
		return c
	}
	if c.rev == b.after {
		restored := b.before
		restored.rev = c.rev + 1
		return restored
	}

	out := c.clone()
	delete(out.pending, token)
	for _, id := range b.ids {
		out.drop(id)
	}
	return out
}
