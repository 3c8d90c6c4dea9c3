package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/downloads"
	"github.com/llehouerou/crate/internal/history"
	"github.com/llehouerou/crate/internal/kv"
	"github.com/llehouerou/crate/internal/poller"
	"github.com/llehouerou/crate/internal/selection"
	"github.com/llehouerou/crate/internal/service"
	"github.com/llehouerou/crate/internal/store"
)

type fakeService struct {
	mu        sync.Mutex
	artists   []catalog.Artist
	albums    map[string][]catalog.Album
	searchErr error
	cancelErr map[string]error
	cancelled []string

	invalidated int
}

func (f *fakeService) Invalidate() {
	f.invalidated++
}

func (f *fakeService) SearchArtists(_ context.Context, _ string) ([]catalog.Artist, error) {
	return f.artists, f.searchErr
}

func (f *fakeService) GetArtistAlbums(_ context.Context, artistID string) ([]catalog.Album, error) {
	return f.albums[artistID], nil
}

func (f *fakeService) InitiateDownload(_ context.Context, albumIDs []string, _ service.Options) (service.Initiation, error) {
	return service.Initiation{DownloadID: "d-" + albumIDs[0], Status: catalog.StatusQueued}, nil
}

func (f *fakeService) GetDownloadStatus(_ context.Context, id string) (catalog.DownloadRecord, error) {
	return catalog.DownloadRecord{ID: id, Status: catalog.StatusDownloading}, nil
}

func (f *fakeService) CancelDownload(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return f.cancelErr[id]
}

var testNow = time.Unix(1_700_000_000, 0)

func testAlbums() []catalog.Album {
	return []catalog.Album{
		{ID: "al1", Title: "First", Artist: "X", TotalTracks: 10},
		{ID: "al2", Title: "Second", Artist: "X", TotalTracks: 8},
		{ID: "al3", Title: "Third", Artist: "X", TotalTracks: 12},
	}
}

func newTestModel(t *testing.T, pollOpts ...poller.Option) (Model, *fakeService) {
	t.Helper()
	db, err := kv.OpenPath(filepath.Join(t.TempDir(), "crate.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := &fakeService{
		artists: []catalog.Artist{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}},
		albums:  map[string][]catalog.Album{"x": testAlbums()},
	}
	clock := func() time.Time { return testNow }
	m := New(Deps{
		Service:   svc,
		Poller:    poller.New(svc, append([]poller.Option{poller.WithInterval(time.Millisecond)}, pollOpts...)...),
		Persister: selection.NewPersister(db.Deferred(), selection.WithClock(clock)),
		History:   history.New(db, 5),
		Logger:    zerolog.Nop(),
	})
	m.now = clock

	n := 0
	m.newToken = func() string {
		n++
		return fmt.Sprintf("tok%d", n)
	}
	t.Cleanup(m.Close)
	return m, svc
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	result, ok := next.(Model)
	if !ok {
		t.Fatal("Update should return Model")
	}
	return result, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "shift+down":
		return tea.KeyMsg{Type: tea.KeyShiftDown}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// withArtistX puts the model on artist X with its albums loaded.
func withArtistX(t *testing.T, m Model) Model {
	t.Helper()
	m.Store.Dispatch(store.SearchStarted{Query: "x"})
	m.Store.Dispatch(store.SearchSucceeded{Results: catalog.SearchResults{Artists: []catalog.Artist{{ID: "x", Name: "X"}}}})
	next, cmd := m.selectArtist()
	if cmd == nil {
		t.Fatal("selectArtist should return a load command")
	}
	m, _ = update(t, next.(Model), cmd())
	return m
}

func notificationTypes(m Model) []catalog.NotificationType {
	var out []catalog.NotificationType
	for _, n := range m.Store.Notifications() {
		out = append(out, n.Type)
	}
	return out
}

func TestUpdate_WindowSizeMsg(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.Width != 120 || m.Height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.Width, m.Height)
	}
}

func TestSearch_Flow(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, key("/"))
	if !m.Searching {
		t.Fatal("Searching = false after /")
	}
	m.Input.SetValue("  x  ")
	m, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("submitting a search should return a command")
	}
	st := m.Store.State()
	if !st.Search.Loading || st.Search.Query != "x" {
		t.Errorf("search state = %+v", st.Search)
	}
	if !slices.Equal(m.Queries, []string{"x"}) {
		t.Errorf("Queries = %v, want [x]", m.Queries)
	}

	m, _ = update(t, m, cmd())
	st = m.Store.State()
	if st.Search.Loading || len(st.Search.Results.Artists) != 2 {
		t.Errorf("after result: %+v", st.Search)
	}
}

func TestSearch_StaleResultIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.Store.Dispatch(store.SearchStarted{Query: "new"})

	m, _ = update(t, m, SearchResultMsg{Query: "old", Artists: []catalog.Artist{{ID: "a"}}})
	if len(m.Store.Search().Results.Artists) != 0 {
		t.Error("stale search result was applied")
	}
}

func TestSearch_FailureSetsError(t *testing.T) {
	m, svc := newTestModel(t)
	svc.searchErr = &service.NetworkError{Op: "GET", Err: errors.New("offline")}
	m.Store.Dispatch(store.SearchStarted{Query: "x"})

	m, _ = update(t, m, SearchCmd(svc, "x")())
	errState := m.Store.Error()
	if errState == nil {
		t.Fatal("Error = nil, want network error")
	}
	if errState.Kind != catalog.ErrorNetwork || !errState.Retryable {
		t.Errorf("Error = %+v", errState)
	}
}

func TestSelectArtist_LoadsAlbums(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)

	st := m.Store.State()
	if len(st.Search.Albums) != 3 {
		t.Errorf("albums = %d, want 3", len(st.Search.Albums))
	}
	if st.Loading {
		t.Error("Loading still set after albums arrived")
	}
	if m.Focus != PaneAlbums {
		t.Errorf("Focus = %v, want albums", m.Focus)
	}
}

func TestAlbumsLoaded_StaleArtistIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)

	m, _ = update(t, m, AlbumsLoadedMsg{ArtistID: "y", Albums: []catalog.Album{{ID: "other"}}})
	if got := len(m.Store.Search().Albums); got != 3 {
		t.Errorf("albums = %d, want 3", got)
	}
}

func TestKeyboardSelection(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)

	m, _ = update(t, m, key("space"))
	if !m.Store.State().IsSelected("al1") {
		t.Fatal("space should toggle the album under the cursor")
	}

	m, _ = update(t, m, key("shift+down"))
	m, _ = update(t, m, key("shift+down"))
	got := m.Store.Selection()
	if got.Selected.Len() != 3 || got.SelectAll != selection.AllAll {
		t.Errorf("selection = %v (%v), want all", got.Selected.IDs(), got.SelectAll)
	}

	m, _ = update(t, m, key("enter"))
	if ids := m.Store.Selection().Selected.IDs(); !slices.Equal(ids, []string{"al3"}) {
		t.Errorf("enter selection = %v, want [al3]", ids)
	}

	m, _ = update(t, m, key("a"))
	if m.Store.Selection().SelectAll != selection.AllAll {
		t.Error("a should select all")
	}
}

func TestSelection_PersistedAndRestored(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)

	m.Store.Dispatch(store.SelectionReplaced{Selection: selection.New("al2", "al3")})
	saved, ok := m.Persister.Load("x")
	if !ok || !saved.Equal(selection.New("al2", "al3")) {
		t.Fatalf("saved selection = %v, %v", saved.IDs(), ok)
	}

	// Loading the same artist again restores what was saved
	m = withArtistX(t, m)
	if got := m.Store.Selection().Selected; !got.Equal(selection.New("al2", "al3")) {
		t.Errorf("restored selection = %v, want [al2 al3]", got.IDs())
	}
}

func TestRefresh_InvalidatesCacheAndKeepsSelection(t *testing.T) {
	m, svc := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.SelectionReplaced{Selection: selection.New("al2")})

	m, cmd := update(t, m, key("ctrl+r"))
	if cmd == nil {
		t.Fatal("refresh should reload the albums")
	}
	if svc.invalidated != 1 {
		t.Errorf("invalidated = %d, want 1", svc.invalidated)
	}
	m, _ = update(t, m, cmd())

	if got := m.Store.Search().Albums; len(got) != 3 {
		t.Errorf("albums = %d, want 3", len(got))
	}
	if got := m.Store.Selection().Selected; !got.Equal(selection.New("al2")) {
		t.Errorf("selection after refresh = %v, want [al2]", got.IDs())
	}
	if saved, ok := m.Persister.Load("x"); !ok || !saved.Equal(selection.New("al2")) {
		t.Errorf("saved selection after refresh = %v, %v", saved.IDs(), ok)
	}
}

func TestDownloads_InitiateReconcileAndPoll(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.SelectionReplaced{Selection: selection.New("al1", "al2")})

	next, cmd := m.startDownloads()
	m = next.(Model)
	if cmd == nil {
		t.Fatal("startDownloads should return commands")
	}
	dl := m.Store.Downloads()
	wantIDs := []string{downloads.TempID("tok1", "al1"), downloads.TempID("tok2", "al2")}
	if !slices.Equal(dl.IDs(), wantIDs) {
		t.Fatalf("ids = %v, want %v", dl.IDs(), wantIDs)
	}
	if dl.Counters().Active != 2 {
		t.Errorf("Active = %d, want 2", dl.Counters().Active)
	}
	if m.Store.Selection().Selected.Len() != 0 {
		t.Error("selection should be cleared after starting downloads")
	}

	// First album confirmed by the service
	m, pollCmd := update(t, m, DownloadInitiatedMsg{
		Token:      "tok1",
		AlbumID:    "al1",
		Initiation: service.Initiation{DownloadID: "d1", Status: catalog.StatusQueued},
	})
	if pollCmd == nil {
		t.Error("a confirmed download should start polling")
	}
	rec, ok := m.Store.Downloads().Get("d1")
	if !ok || rec.Status != catalog.StatusQueued {
		t.Fatalf("d1 = %+v, %v", rec, ok)
	}

	// Second album rejected
	m, _ = update(t, m, DownloadInitiatedMsg{
		Token:   "tok2",
		AlbumID: "al2",
		Err:     &service.APIError{StatusCode: 500, Message: "busy"},
	})
	dl = m.Store.Downloads()
	if !slices.Equal(dl.IDs(), []string{"d1"}) {
		t.Errorf("ids after rollback = %v, want [d1]", dl.IDs())
	}
	if dl.Counters() != (downloads.Counters{Active: 1}) {
		t.Errorf("counters after rollback = %+v", dl.Counters())
	}
	if !slices.Contains(notificationTypes(m), catalog.NotificationError) {
		t.Error("a failed initiation should notify an error")
	}

	// Stale poll for an old generation is ignored
	m, staleCmd := update(t, m, poller.StatusMsg{
		ID: "d1", Generation: rec.Generation + 1,
		Record: catalog.DownloadRecord{Status: catalog.StatusCompleted}, At: testNow,
	})
	if staleCmd != nil {
		t.Error("stale poll should stop polling")
	}
	if r, _ := m.Store.Downloads().Get("d1"); r.Status != catalog.StatusQueued {
		t.Errorf("stale poll applied: %v", r.Status)
	}

	// Current poll completes it
	m, _ = update(t, m, poller.StatusMsg{
		ID: "d1", Generation: rec.Generation,
		Record: catalog.DownloadRecord{Status: catalog.StatusCompleted}, At: testNow,
	})
	if got := m.Store.Downloads().Counters(); got != (downloads.Counters{Completed: 1}) {
		t.Errorf("counters after completion = %+v", got)
	}
	if !slices.Contains(notificationTypes(m), catalog.NotificationSuccess) {
		t.Error("a completed download should notify success")
	}
}

func TestDownloads_ConfirmedAfterClearIsDropped(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.SelectionReplaced{Selection: selection.New("al1")})

	next, _ := m.startDownloads()
	m = next.(Model)
	m.Store.Dispatch(store.DownloadsCleared{})

	m, cmd := update(t, m, DownloadInitiatedMsg{
		Token:      "tok1",
		AlbumID:    "al1",
		Initiation: service.Initiation{DownloadID: "d1", Status: catalog.StatusQueued},
	})
	if cmd != nil {
		t.Error("a cleared download should not be polled")
	}
	if m.Store.Downloads().Len() != 0 {
		t.Errorf("records = %v, want none", m.Store.Downloads().IDs())
	}
}

func TestDownloads_SkipsAlbumsAlreadyDownloading(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1"}, At: testNow})
	m.Store.Dispatch(store.SelectionReplaced{Selection: selection.New("al1")})

	next, _ := m.startDownloads()
	m = next.(Model)
	if got := m.Store.Downloads().Len(); got != 1 {
		t.Errorf("records = %d, want 1", got)
	}
}

func TestDownloads_NothingSelectedWarns(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)

	next, _ := m.startDownloads()
	m = next.(Model)
	if !slices.Equal(notificationTypes(m), []catalog.NotificationType{catalog.NotificationWarning}) {
		t.Errorf("notifications = %v, want one warning", notificationTypes(m))
	}
}

func TestStatus_NotFoundFailsDownload(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1"}, At: testNow})

	m, cmd := update(t, m, poller.StatusMsg{ID: "al1", Err: &service.APIError{StatusCode: 404}, At: testNow})
	rec, _ := m.Store.Downloads().Get("al1")
	if rec.Status != catalog.StatusFailed || rec.Error == nil {
		t.Errorf("record = %+v, want failed with error", rec)
	}
	if cmd != nil {
		t.Error("polling should stop once the download is gone")
	}
	if !slices.Contains(notificationTypes(m), catalog.NotificationError) {
		t.Error("a lost download should notify an error")
	}
}

func TestStatus_FinishedDownload(t *testing.T) {
	finished := poller.StatusMsg{
		ID:     "al1",
		Record: catalog.DownloadRecord{Status: catalog.StatusCompleted, Progress: 100, CurrentTrack: "Bonus"},
		At:     testNow,
	}

	t.Run("ignored when polling stops on terminal", func(t *testing.T) {
		m, _ := newTestModel(t)
		m = withArtistX(t, m)
		m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1"}, At: testNow})
		m.Store.Dispatch(store.DownloadCompleted{ID: "al1", At: testNow})

		m, cmd := update(t, m, finished)
		if cmd != nil {
			t.Error("a finished download should not be polled again")
		}
		if rec, _ := m.Store.Downloads().Get("al1"); rec.CurrentTrack == "Bonus" {
			t.Error("poll result applied to a finished download")
		}
	})

	t.Run("refreshed when polling continues", func(t *testing.T) {
		m, _ := newTestModel(t, poller.WithStopOnTerminal(false))
		m = withArtistX(t, m)
		m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1"}, At: testNow})
		m.Store.Dispatch(store.DownloadCompleted{ID: "al1", At: testNow})

		m, cmd := update(t, m, finished)
		if cmd == nil {
			t.Error("polling should continue past a terminal status")
		}
		rec, _ := m.Store.Downloads().Get("al1")
		if rec.Status != catalog.StatusCompleted || rec.CurrentTrack != "Bonus" {
			t.Errorf("record = %+v, want completed with refreshed track", rec)
		}
		if got := m.Store.Downloads().Counters(); got != (downloads.Counters{Completed: 1}) {
			t.Errorf("counters = %+v", got)
		}
		if len(notificationTypes(m)) != 0 {
			t.Errorf("notifications = %v, want none", notificationTypes(m))
		}
	})
}

func TestCancel_AtCursor(t *testing.T) {
	m, svc := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1", "al2"}, At: testNow})
	m.Focus = PaneDownloads
	m.Cursors[PaneDownloads] = 1

	m, cmd := update(t, m, key("c"))
	if cmd == nil {
		t.Fatal("cancel should call the service")
	}
	rec, _ := m.Store.Downloads().Get("al2")
	if rec.Status != catalog.StatusCancelled {
		t.Errorf("al2 status = %v, want cancelled", rec.Status)
	}
	if _, ok := cmd().(DownloadCancelResultMsg); !ok {
		t.Error("cancel command should answer DownloadCancelResultMsg")
	}
	if !slices.Equal(svc.cancelled, []string{"al2"}) {
		t.Errorf("cancelled = %v, want [al2]", svc.cancelled)
	}
}

func TestCancel_TemporaryRecordWarns(t *testing.T) {
	m, svc := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.DownloadsStarted{Token: "t", AlbumIDs: []string{"al1"}, At: testNow})
	m.Focus = PaneDownloads

	m, _ = update(t, m, key("c"))
	if rec, _ := m.Store.Downloads().Get(downloads.TempID("t", "al1")); rec.Status != catalog.StatusPending {
		t.Errorf("status = %v, want pending", rec.Status)
	}
	if len(svc.cancelled) != 0 {
		t.Errorf("service called for a temporary record: %v", svc.cancelled)
	}
}

func TestCancelAll(t *testing.T) {
	m, svc := newTestModel(t)
	m = withArtistX(t, m)
	svc.cancelErr = map[string]error{"al3": errors.New("nope")}
	m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1", "al2", "al3"}, At: testNow})
	m.Store.Dispatch(store.DownloadCompleted{ID: "al1", At: testNow})

	m, cmd := update(t, m, key("X"))
	if cmd == nil {
		t.Fatal("cancel all should return a command")
	}
	if got := m.Store.Downloads().Counters().Active; got != 0 {
		t.Errorf("Active = %d, want 0", got)
	}

	msg, ok := cmd().(CancelAllResultMsg)
	if !ok {
		t.Fatal("expected CancelAllResultMsg")
	}
	if msg.Cancelled != 1 || !slices.Equal(msg.Failed, []string{"al3"}) {
		t.Errorf("result = %+v", msg)
	}
	slices.Sort(svc.cancelled)
	if !slices.Equal(svc.cancelled, []string{"al2", "al3"}) {
		t.Errorf("cancelled = %v, want [al2 al3]", svc.cancelled)
	}

	m, _ = update(t, m, msg)
	if !slices.Contains(notificationTypes(m), catalog.NotificationWarning) {
		t.Error("partial failure should warn")
	}
}

func TestClearFinished(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1", "al2"}, At: testNow})
	m.Store.Dispatch(store.DownloadCompleted{ID: "al1", At: testNow})
	m.Focus = PaneDownloads
	m.Cursors[PaneDownloads] = 1

	m, _ = update(t, m, key("C"))
	if ids := m.Store.Downloads().IDs(); !slices.Equal(ids, []string{"al2"}) {
		t.Errorf("ids = %v, want [al2]", ids)
	}
	if m.Cursors[PaneDownloads] != 0 {
		t.Errorf("cursor = %d, want 0", m.Cursors[PaneDownloads])
	}
}

func TestNotificationExpires(t *testing.T) {
	m, _ := newTestModel(t)
	cmd := m.notify(catalog.NotificationSuccess, "done", "")
	if cmd == nil {
		t.Fatal("success notifications auto-close")
	}
	id := m.Store.Notifications()[0].ID

	m, _ = update(t, m, NotificationExpiredMsg{ID: id})
	if len(m.Store.Notifications()) != 0 {
		t.Error("notification not removed")
	}
	if NotificationExpireCmd(catalog.Notification{Type: catalog.NotificationError}) != nil {
		t.Error("error notifications stay until dismissed")
	}
}

func TestSearchHistoryNavigation(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, HistoryLoadedMsg{Queries: []string{"b", "a"}})
	m, _ = update(t, m, key("/"))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Input.Value() != "b" {
		t.Errorf("first up = %q, want b", m.Input.Value())
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Input.Value() != "a" {
		t.Errorf("up past the end = %q, want a", m.Input.Value())
	}
	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))
	if m.Input.Value() != "" {
		t.Errorf("down past the start = %q, want empty", m.Input.Value())
	}
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	m = withArtistX(t, m)
	m.Store.Dispatch(store.DownloadsStarted{AlbumIDs: []string{"al1"}, At: testNow})
	m.Store.Dispatch(store.DownloadUpdated{ID: "al1", Patch: downloads.Patch{
		Status:   downloads.Ptr(catalog.StatusDownloading),
		Progress: downloads.Ptr(42.0),
		Speed:    downloads.Ptr(2048.0),
	}, At: testNow})

	view := m.View()
	for _, want := range []string{"Artists (1)", "First", "Downloads", "1 active", "42%", "2.0 KiB/s"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}
