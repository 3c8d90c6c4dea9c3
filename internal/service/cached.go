package service

import (
	"context"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/llehouerou/crate/internal/catalog"
)

// DefaultCacheTTL is how long lookups stay cached when no TTL is configured.
const DefaultCacheTTL = 5 * time.Minute

// Cached caches artist searches and album listings of the wrapped Service.
// Download calls go straight through.
type Cached struct {
	Service
	ttl     time.Duration
	artists *ccache.Cache[[]catalog.Artist]
	albums  *ccache.Cache[[]catalog.Album]
}

var _ Service = (*Cached)(nil)

// NewCached wraps s. A non-positive ttl uses DefaultCacheTTL.
func NewCached(s Service, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		Service: s,
		ttl:     ttl,
		artists: ccache.New(ccache.Configure[[]catalog.Artist]().MaxSize(256).GetsPerPromote(3).ItemsToPrune(1)),
		albums:  ccache.New(ccache.Configure[[]catalog.Album]().MaxSize(256).GetsPerPromote(3).ItemsToPrune(1)),
	}
}

func (c *Cached) SearchArtists(ctx context.Context, query string) ([]catalog.Artist, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	item, err := c.artists.Fetch(key, c.ttl, func() ([]catalog.Artist, error) {
		return c.Service.SearchArtists(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return item.Value(), nil
}

func (c *Cached) GetArtistAlbums(ctx context.Context, artistID string) ([]catalog.Album, error) {
	item, err := c.albums.Fetch(artistID, c.ttl, func() ([]catalog.Album, error) {
		return c.Service.GetArtistAlbums(ctx, artistID)
	})
	if err != nil {
		return nil, err
	}
	return item.Value(), nil
}

// Invalidate drops every cached lookup.
func (c *Cached) Invalidate() {
	c.artists.Clear()
	c.albums.Clear()
}

// Close stops the cache workers.
func (c *Cached) Close() {
	c.artists.Stop()
	c.albums.Stop()
}
