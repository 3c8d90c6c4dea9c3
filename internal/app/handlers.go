package app

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/downloads"
	"github.com/llehouerou/crate/internal/errmsg"
	"github.com/llehouerou/crate/internal/poller"
	"github.com/llehouerou/crate/internal/selection"
	"github.com/llehouerou/crate/internal/service"
	"github.com/llehouerou/crate/internal/store"
)

// notify shows a notification and schedules its removal.
func (m Model) notify(typ catalog.NotificationType, title, message string) tea.Cmd {
	n := store.Notify(typ, title, message, m.now())
	m.Store.Dispatch(store.NotificationAdded{Notification: n})
	return NotificationExpireCmd(n)
}

func (m Model) handleSearchResult(msg SearchResultMsg) (tea.Model, tea.Cmd) {
	st := m.Store.State()
	// Ignore results of a search that was superseded
	if !st.Search.Loading || st.Search.Query != msg.Query {
		return m, nil
	}

	if msg.Err != nil {
		errState := errmsg.Classify(errmsg.OpSearch, msg.Err, m.now())
		m.Logger.Warn().Err(msg.Err).Str("query", msg.Query).Msg("Search failed")
		m.Store.Dispatch(store.SearchFailed{Err: *errState})
		return m, nil
	}

	m.Store.Dispatch(store.SearchSucceeded{Results: catalog.SearchResults{Artists: msg.Artists}})
	m.Cursors[PaneArtists] = 0
	return m, nil
}

func (m Model) selectArtist() (tea.Model, tea.Cmd) {
	artists := m.Store.State().Search.Results.Artists
	i := m.Cursors[PaneArtists]
	if i < 0 || i >= len(artists) {
		return m, nil
	}
	artist := artists[i]

	m.Store.Dispatch(store.ArtistSelected{Artist: artist})
	m.Store.Dispatch(store.LoadingSet{Loading: true})
	m.Focus = PaneAlbums
	m.Cursors[PaneAlbums] = 0
	m.Anchor = selection.NoAnchor
	return m, LoadAlbumsCmd(m.Service, artist.ID)
}

func (m Model) handleAlbumsLoaded(msg AlbumsLoadedMsg) (tea.Model, tea.Cmd) {
	artist := m.Store.State().Search.Artist
	if artist == nil || artist.ID != msg.ArtistID {
		return m, nil
	}
	m.Store.Dispatch(store.LoadingSet{Loading: false})

	if msg.Err != nil {
		errState := errmsg.Classify(errmsg.OpArtistAlbums, msg.Err, m.now())
		errState.Message = errmsg.FormatWith(errmsg.OpArtistAlbums, artist.Name, msg.Err)
		m.Store.Dispatch(store.ErrorSet{Err: *errState})
		return m, nil
	}

	// A selection only survives the reset on a refresh of the same artist
	current := m.Store.Selection().Selected
	m.Store.Dispatch(store.AlbumsSet{Albums: msg.Albums})
	switch {
	case current.Len() > 0:
		m.Store.Dispatch(store.SelectionReplaced{Selection: current})
	case m.Persister != nil:
		if saved, ok := m.Persister.Load(artist.ID); ok && saved.Len() > 0 {
			m.Store.Dispatch(store.SelectionReplaced{Selection: saved})
		}
	}
	m.clampCursors()
	return m, nil
}

// refresh drops cached lookups and reloads the current artist's albums.
func (m Model) refresh() (tea.Model, tea.Cmd) {
	if c, ok := m.Service.(interface{ Invalidate() }); ok {
		c.Invalidate()
	}
	artist := m.Store.State().Search.Artist
	if artist == nil {
		return m, nil
	}
	m.Store.Dispatch(store.LoadingSet{Loading: true})
	return m, LoadAlbumsCmd(m.Service, artist.ID)
}

// startDownloads requests every selected album that is not already being
// downloaded. Each album is its own optimistic batch.
func (m Model) startDownloads() (tea.Model, tea.Cmd) {
	st := m.Store.State()
	albums := st.SelectedAlbums()
	if len(albums) == 0 {
		return m, m.notify(catalog.NotificationWarning, "Nothing to download", "Select at least one album first")
	}

	busy := make(map[string]bool)
	for _, r := range st.ActiveDownloads() {
		busy[r.AlbumID] = true
	}
	albums = lo.Reject(albums, func(a catalog.Album, _ int) bool { return busy[a.ID] })

	at := m.now()
	cmds := make([]tea.Cmd, 0, len(albums)+1)
	for _, a := range albums {
		token := m.newToken()
		m.Store.Dispatch(store.DownloadsStarted{Token: token, AlbumIDs: []string{a.ID}, At: at})
		cmds = append(cmds, InitiateDownloadCmd(m.Service, token, a.ID, m.Options))
	}
	m.Store.Dispatch(store.SelectionCleared{})
	m.Anchor = selection.NoAnchor

	if len(albums) > 0 {
		cmds = append(cmds, m.notify(catalog.NotificationInfo, "Downloads", fmt.Sprintf("Starting %d download(s)", len(albums))))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleInitiated(msg DownloadInitiatedMsg) (tea.Model, tea.Cmd) {
	now := m.now()
	if msg.Err != nil {
		errState := errmsg.Classify(errmsg.OpDownloadInitiate, msg.Err, now)
		m.Logger.Warn().Err(msg.Err).Str("album_id", msg.AlbumID).Msg("Download request failed")
		m.Store.Dispatch(store.DownloadsInitiationFailed{Token: msg.Token, Err: errState})
		m.clampCursors()
		return m, m.notify(catalog.NotificationError, "Download failed", errState.Message)
	}

	id := msg.Initiation.DownloadID
	if !m.Store.Downloads().IsPending(msg.Token) {
		m.Logger.Warn().Str("id", id).Str("album_id", msg.AlbumID).Msg("Download confirmed after its record was cleared")
		return m, nil
	}
	m.Store.Dispatch(store.DownloadsInitiated{Token: msg.Token, DownloadID: id})
	m.Logger.Info().Str("id", id).Str("album_id", msg.AlbumID).Msg("Download started")

	if s := msg.Initiation.Status; s.IsValid() && s != catalog.StatusPending {
		m.Store.Dispatch(store.DownloadUpdated{ID: id, Patch: downloads.Patch{Status: &s}, At: now})
	}

	rec, ok := m.Store.Downloads().Get(id)
	if !ok || rec.Status.IsTerminal() {
		return m, nil
	}
	return m, m.Poller.Tick(id, rec.Generation)
}

// handleFinishedStatus keeps refreshing a finished download's details when the
// poller does not stop on terminal statuses. The status itself stays final.
func (m Model) handleFinishedStatus(msg poller.StatusMsg) (tea.Model, tea.Cmd) {
	if m.Poller.StopsOnTerminal() {
		return m, nil
	}
	if msg.Err == nil {
		m.Store.Dispatch(store.DownloadUpdated{ID: msg.ID, Patch: downloads.PatchFrom(msg.Record), At: msg.At})
	}
	return m, m.Poller.Next(msg)
}

func (m Model) handleStatus(msg poller.StatusMsg) (tea.Model, tea.Cmd) {
	rec, ok := m.Store.Downloads().Get(msg.ID)
	// Stale: removed or superseded since the poll was scheduled
	if !ok || rec.Generation != msg.Generation {
		return m, nil
	}
	if rec.Status.IsTerminal() {
		return m.handleFinishedStatus(msg)
	}

	if msg.Err != nil {
		if errors.Is(msg.Err, service.ErrNotFound) {
			errState := errmsg.Classify(errmsg.OpDownloadStatus, msg.Err, msg.At)
			m.Store.Dispatch(store.DownloadFailed{ID: msg.ID, Err: *errState, At: msg.At})
			return m, m.notify(catalog.NotificationError, "Download lost", rec.AlbumTitle)
		}
		m.Logger.Warn().Err(msg.Err).Str("id", msg.ID).Msg("Download status unavailable")
		return m, m.Poller.Next(msg)
	}

	m.Store.Dispatch(store.DownloadSynced{ID: msg.ID, Generation: msg.Generation, Record: msg.Record, At: msg.At})
	updated, _ := m.Store.Downloads().Get(msg.ID)

	cmds := []tea.Cmd{m.Poller.Next(msg)}
	switch updated.Status {
	case catalog.StatusCompleted:
		cmds = append(cmds, m.notify(catalog.NotificationSuccess, "Download complete", updated.AlbumTitle))
	case catalog.StatusFailed:
		reason := "Download failed"
		if updated.Error != nil {
			reason = updated.Error.Message
		}
		cmds = append(cmds, m.notify(catalog.NotificationError, updated.AlbumTitle, reason))
	case catalog.StatusCancelled:
		cmds = append(cmds, m.notify(catalog.NotificationInfo, "Download cancelled", updated.AlbumTitle))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) cancelAtCursor() (tea.Model, tea.Cmd) {
	records := m.Store.Downloads().Records()
	i := m.Cursors[PaneDownloads]
	if i < 0 || i >= len(records) {
		return m, nil
	}
	rec := records[i]
	if rec.Status.IsTerminal() {
		return m, nil
	}
	if downloads.IsTemp(rec.ID) {
		return m, m.notify(catalog.NotificationWarning, "Please wait", "The download is still being requested")
	}

	m.Store.Dispatch(store.DownloadCancelled{ID: rec.ID, At: m.now()})
	return m, CancelDownloadCmd(m.Service, rec.ID)
}

func (m Model) handleCancelResult(msg DownloadCancelResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil || errors.Is(msg.Err, service.ErrNotFound) {
		return m, nil
	}
	m.Logger.Warn().Err(msg.Err).Str("id", msg.ID).Msg("Cancel request failed")
	return m, m.notify(catalog.NotificationWarning, "Cancel failed", errmsg.Format(errmsg.OpDownloadCancel, msg.Err))
}

// cancelAll cancels every active download the service already knows about.
func (m Model) cancelAll() (tea.Model, tea.Cmd) {
	ids := lo.FilterMap(m.Store.State().ActiveDownloads(), func(r catalog.DownloadRecord, _ int) (string, bool) {
		return r.ID, !downloads.IsTemp(r.ID)
	})
	if len(ids) == 0 {
		return m, nil
	}

	at := m.now()
	for _, id := range ids {
		m.Store.Dispatch(store.DownloadCancelled{ID: id, At: at})
	}
	return m, CancelAllCmd(m.Service, ids)
}

func (m Model) handleCancelAllResult(msg CancelAllResultMsg) (tea.Model, tea.Cmd) {
	if len(msg.Failed) > 0 {
		m.Logger.Warn().Strs("ids", msg.Failed).Msg("Some cancel requests failed")
		return m, m.notify(catalog.NotificationWarning, "Cancel failed",
			fmt.Sprintf("%d download(s) could not be cancelled", len(msg.Failed)))
	}
	return m, m.notify(catalog.NotificationInfo, "Downloads cancelled", fmt.Sprintf("Cancelled %d download(s)", msg.Cancelled))
}

func (m *Model) removeAtCursor() {
	records := m.Store.Downloads().Records()
	i := m.Cursors[PaneDownloads]
	if i < 0 || i >= len(records) || !records[i].Status.IsTerminal() {
		return
	}
	m.Store.Dispatch(store.DownloadRemoved{ID: records[i].ID})
	m.clampCursors()
}
