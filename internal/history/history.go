// Package history keeps the most recent search queries in durable storage.
package history

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

const (
	// StorageKey is the durable storage key holding the history.
	StorageKey = "search-history"
	// DefaultMax is the number of queries kept when no limit is configured.
	DefaultMax = 10
)

// Storage is the durable key-value store backing the history.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// History is a most-recent-first list of distinct queries.
type History struct {
	storage Storage
	limit   int
}

// New creates a history capped at limit entries (DefaultMax when limit <= 0).
func New(storage Storage, limit int) *History {
	if limit <= 0 {
		limit = DefaultMax
	}
	return &History{storage: storage, limit: limit}
}

// List returns the stored queries, most recent first. A corrupt entry reads as empty.
func (h *History) List() ([]string, error) {
	raw, ok, err := h.storage.Get(StorageKey)
	if err != nil || !ok {
		return nil, err
	}
	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil, nil //nolint:nilerr // corrupt history is treated as empty
	}
	return queries, nil
}

// Add moves query to the front, dropping an older duplicate and anything past
// the cap. Blank queries are ignored.
func (h *History) Add(query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return h.List()
	}

	current, err := h.List()
	if err != nil {
		return nil, err
	}

	next := append([]string{query}, lo.Without(current, query)...)
	if len(next) > h.limit {
		next = next[:h.limit]
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := h.storage.Set(StorageKey, string(data)); err != nil {
		return nil, err
	}
	return next, nil
}

// Clear removes the history.
func (h *History) Clear() error {
	return h.storage.Delete(StorageKey)
}
