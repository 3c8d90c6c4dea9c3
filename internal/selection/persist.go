package selection

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	// StorageKey is the durable storage key holding the saved selection.
	StorageKey = "selection-state"
	// DefaultTTL is how long a saved selection stays loadable.
	DefaultTTL = 30 * time.Minute
)

// Storage is the durable key-value store the persister writes to.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// record is the stored JSON shape.
type record struct {
	SelectedAlbums []string `json:"selectedAlbums"`
	Timestamp      int64    `json:"timestamp"` // unix milliseconds
	ArtistID       string   `json:"artistId,omitempty"`
}

// Persister saves and restores a selection. Storage failures are logged and
// swallowed; no method returns an error.
type Persister struct {
	storage Storage
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Persister.
type Option func(*Persister)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(p *Persister) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) {
		p.now = now
	}
}

// WithLogger sets the logger used for storage warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Persister) {
		p.logger = logger
	}
}

// NewPersister creates a persister over storage.
func NewPersister(storage Storage, opts ...Option) *Persister {
	p := &Persister{
		storage: storage,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Save stores s stamped with the current time and optional artist context.
func (p *Persister) Save(s Set, artistID string) {
	data, err := json.Marshal(record{
		SelectedAlbums: s.IDs(),
		Timestamp:      p.now().UnixMilli(),
		ArtistID:       artistID,
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to encode selection state")
		return
	}
	if err := p.storage.Set(StorageKey, string(data)); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to save selection state")
	}
}

// Load returns the saved selection. The entry is purged and false returned when
// it cannot be parsed, is older than the TTL, or belongs to another artist than
// a non-empty artistID.
func (p *Persister) Load(artistID string) (Set, bool) {
	raw, ok, err := p.storage.Get(StorageKey)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read selection state")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		p.logger.Warn().Err(err).Msg("Discarding unreadable selection state")
		p.Clear()
		return nil, false
	}

	age := p.now().Sub(time.UnixMilli(rec.Timestamp))
	if age > p.ttl {
		p.logger.Debug().Dur("age", age).Msg("Discarding expired selection state")
		p.Clear()
		return nil, false
	}

	if artistID != "" && rec.ArtistID != artistID {
		p.logger.Debug().
			Str("stored_artist_id", rec.ArtistID).
			Str("artist_id", artistID).
			Msg("Discarding selection state of another artist")
		p.Clear()
		return nil, false
	}

	return New(rec.SelectedAlbums...), true
}

// HasSaved reports whether a non-empty selection can be loaded.
func (p *Persister) HasSaved(artistID string) bool {
	s, ok := p.Load(artistID)
	return ok && s.Len() > 0
}

// Clear removes the saved selection.
func (p *Persister) Clear() {
	if err := p.storage.Delete(StorageKey); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to clear selection state")
	}
}
