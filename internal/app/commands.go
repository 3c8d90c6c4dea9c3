package app

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/history"
	"github.com/llehouerou/crate/internal/service"
)

const (
	requestTimeout = 30 * time.Second
	clockInterval  = time.Second
	cancelAllLimit = 4
)

// SearchCmd searches artists matching query.
func SearchCmd(svc service.Service, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		artists, err := svc.SearchArtists(ctx, query)
		return SearchResultMsg{Query: query, Artists: artists, Err: err}
	}
}

// LoadAlbumsCmd fetches the albums of an artist.
func LoadAlbumsCmd(svc service.Service, artistID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		albums, err := svc.GetArtistAlbums(ctx, artistID)
		return AlbumsLoadedMsg{ArtistID: artistID, Albums: albums, Err: err}
	}
}

// InitiateDownloadCmd requests the download of one album for batch token.
func InitiateDownloadCmd(svc service.Service, token, albumID string, opts service.Options) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := svc.InitiateDownload(ctx, []string{albumID}, opts)
		return DownloadInitiatedMsg{Token: token, AlbumID: albumID, Initiation: res, Err: err}
	}
}

// CancelDownloadCmd cancels a download on the service.
func CancelDownloadCmd(svc service.Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return DownloadCancelResultMsg{ID: id, Err: svc.CancelDownload(ctx, id)}
	}
}

// CancelAllCmd cancels every id, a few at a time. A failure does not stop the
// other cancellations.
func CancelAllCmd(svc service.Service, ids []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			failed []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cancelAllLimit)
		for _, id := range ids {
			g.Go(func() error {
				if err := svc.CancelDownload(gctx, id); err != nil {
					mu.Lock()
					failed = append(failed, id)
					mu.Unlock()
				}
				return nil
			})
		}
		err := g.Wait()
		return CancelAllResultMsg{Cancelled: len(ids) - len(failed), Failed: failed, Err: err}
	}
}

// NotificationExpireCmd removes n once its auto-close delay elapsed.
// It returns nil for notifications that stay until dismissed.
func NotificationExpireCmd(n catalog.Notification) tea.Cmd {
	if !n.AutoClose || n.Duration <= 0 {
		return nil
	}
	return tea.Tick(n.Duration, func(_ time.Time) tea.Msg {
		return NotificationExpiredMsg{ID: n.ID}
	})
}

// LoadHistoryCmd reads the search history.
func LoadHistoryCmd(h *history.History) tea.Cmd {
	return func() tea.Msg {
		queries, _ := h.List()
		return HistoryLoadedMsg{Queries: queries}
	}
}

// ClockTickCmd refreshes the downloads view once per second.
func ClockTickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
