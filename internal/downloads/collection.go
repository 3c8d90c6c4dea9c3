// Package downloads tracks the lifecycle of album downloads: an ordered map of
// download records plus aggregate counters, with optimistic creation under
// temporary ids that are later reconciled or rolled back.
//
// Collection is a value type. Every method returns a new Collection and leaves
// the receiver untouched, so callers can keep old snapshots.
package downloads

import (
	"slices"

	"github.com/llehouerou/crate/internal/catalog"
)

// Counters are maintained incrementally by each transition.
type Counters struct {
	Active    int
	Completed int
	Failed    int
}

// Collection is the ordered downloads map with its counters.
type Collection struct {
	order    []string
	records  map[string]catalog.DownloadRecord
	counters Counters
	pending  map[string]pendingBatch
	rev      uint64 // bumped by every mutation
}

// New returns an empty collection. The zero value is also empty and usable.
func New() Collection {
	return Collection{}
}

// Len returns the number of records.
func (c Collection) Len() int {
	return len(c.order)
}

// Get returns the record with the given id.
func (c Collection) Get(id string) (catalog.DownloadRecord, bool) {
	r, ok := c.records[id]
	return r, ok
}

// Has reports whether a record with the given id exists.
func (c Collection) Has(id string) bool {
	_, ok := c.records[id]
	return ok
}

// IDs returns record ids in insertion order.
func (c Collection) IDs() []string {
	return slices.Clone(c.order)
}

// Records returns the records in insertion order.
func (c Collection) Records() []catalog.DownloadRecord {
	out := make([]catalog.DownloadRecord, len(c.order))
	for i, id := range c.order {
		out[i] = c.records[id]
	}
	return out
}

// Counters returns the aggregate counters.
func (c Collection) Counters() Counters {
	return c.counters
}

// Revision changes whenever the collection is mutated.
func (c Collection) Revision() uint64 {
	return c.rev
}

// Count recomputes the counters by scanning every record. Transitions never
// use it; it exists to check the incrementally maintained counters.
func (c Collection) Count() Counters {
	var out Counters
	for _, r := range c.records {
		switch {
		case r.Status.IsActive():
			out.Active++
		case r.Status == catalog.StatusCompleted:
			out.Completed++
		case r.Status == catalog.StatusFailed:
			out.Failed++
		}
	}
	return out
}

// clone copies the collection so the copy can be mutated freely.
func (c Collection) clone() Collection {
	out := Collection{
		order:    slices.Clone(c.order),
		records:  make(map[string]catalog.DownloadRecord, len(c.records)),
		counters: c.counters,
		pending:  make(map[string]pendingBatch, len(c.pending)),
		rev:      c.rev + 1,
	}
	for id, r := range c.records {
		out.records[id] = r
	}
	for tok, b := range c.pending {
		out.pending[tok] = b
	}
	return out
}

// insert appends r and counts it. The caller owns c (already cloned).
func (c *Collection) insert(r catalog.DownloadRecord) {
	c.order = append(c.order, r.ID)
	c.records[r.ID] = r
	c.countIn(r.Status)
}

// drop deletes the record and uncounts it. The caller owns c.
func (c *Collection) drop(id string) {
	r, ok := c.records[id]
	if !ok {
		return
	}
	delete(c.records, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	c.countOut(r.Status)
}

func (c *Collection) countIn(s catalog.Status) {
	switch {
	case s.IsActive():
		c.counters.Active++
	case s == catalog.StatusCompleted:
		c.counters.Completed++
	case s == catalog.StatusFailed:
		c.counters.Failed++
	}
}

func (c *Collection) countOut(s catalog.Status) {
	switch {
	case s.IsActive():
		c.counters.Active = max(c.counters.Active-1, 0)
	case s == catalog.StatusCompleted:
		c.counters.Completed = max(c.counters.Completed-1, 0)
	case s == catalog.StatusFailed:
		c.counters.Failed = max(c.counters.Failed-1, 0)
	}
}
