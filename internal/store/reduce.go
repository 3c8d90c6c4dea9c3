package store

import (
	"slices"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/downloads"
	"github.com/llehouerou/crate/internal/selection"
)

// Reduce returns the state after applying a to s. It never modifies s. When a
// changes nothing, including when a is not a known action, s itself is
// returned so observers can compare pointers.
func Reduce(s *State, a Action) *State {
	switch a := a.(type) {
	case SearchStarted, SearchSucceeded, SearchFailed, ArtistSelected, AlbumsSet, SearchCleared:
		return reduceSearch(s, a)
	case SelectionToggled, SelectionAllSelected, SelectionAllDeselected, SelectionSetOne,
		SelectionCleared, SelectAllToggled, SelectionReplaced:
		return reduceSelection(s, a)
	case LoadingSet:
		if s.Loading == a.Loading {
			return s
		}
		next := *s
		next.Loading = a.Loading
		return &next
	case ErrorSet:
		next := *s
		err := a.Err
		next.Error = &err
		return &next
	case ErrorCleared:
		if s.Error == nil {
			return s
		}
		next := *s
		next.Error = nil
		return &next
	case NotificationAdded, NotificationRemoved, NotificationsCleared:
		return reduceNotifications(s, a)
	case nil:
		return s
	default:
		return reduceDownloads(s, a)
	}
}

func reduceSearch(s *State, a Action) *State {
	next := *s
	switch a := a.(type) {
	case SearchStarted:
		next.Search.Query = a.Query
		next.Search.Loading = true
		next.Error = nil
	case SearchSucceeded:
		next.Search.Results = a.Results
		next.Search.Loading = false
	case SearchFailed:
		err := a.Err
		next.Search.Results = catalog.SearchResults{}
		next.Search.Loading = false
		next.Error = &err
	case ArtistSelected:
		artist := a.Artist
		next.Search.Artist = &artist
		next.Search.Albums = nil
		next.Selection = emptySelection()
	case AlbumsSet:
		next.Search.Albums = slices.Clone(a.Albums)
		next.Search.Loading = false
		next.Selection = emptySelection()
	case SearchCleared:
		next.Search = SearchState{}
		next.Selection = emptySelection()
	}
	return &next
}

func emptySelection() SelectionState {
	return SelectionState{Selected: selection.New(), SelectAll: selection.AllNone}
}

func reduceSelection(s *State, a Action) *State {
	albums := s.Search.Albums
	cur := s.Selection.Selected

	var sel selection.Set
	switch a := a.(type) {
	case SelectionToggled:
		if _, ok := catalog.FindAlbum(albums, a.AlbumID); !ok {
			return s
		}
		sel = selection.Toggle(cur, a.AlbumID)
	case SelectionAllSelected:
		sel = selection.SelectAll(albums)
	case SelectionAllDeselected, SelectionCleared:
		sel = selection.DeselectAll()
	case SelectionSetOne:
		if _, ok := catalog.FindAlbum(albums, a.AlbumID); !ok {
			return s
		}
		sel = selection.SetSelected(cur, a.AlbumID, a.Selected)
	case SelectAllToggled:
		sel = selection.HandleSelectAllToggle(cur, albums, s.Selection.SelectAll)
	case SelectionReplaced:
		sel = selection.Cleanup(a.Selection, albums)
	}

	if sel.Equal(cur) {
		return s
	}
	next := *s
	next.Selection = SelectionState{Selected: sel, SelectAll: selection.StateOf(sel, albums)}
	return &next
}

func reduceDownloads(s *State, a Action) *State {
	cur := s.Downloads
	var dl downloads.Collection
	var err *catalog.ErrorState

	switch a := a.(type) {
	case DownloadsStarted:
		if a.Token != "" {
			dl = cur.StartOptimistic(a.Token, a.AlbumIDs, s.Search.Albums, a.At)
		} else {
			dl = cur.Start(a.AlbumIDs, s.Search.Albums, a.At)
		}
	case DownloadsInitiated:
		dl = cur.Reconcile(a.Token, a.DownloadID)
	case DownloadsInitiationFailed:
		dl = cur.Rollback(a.Token)
		err = a.Err
	case DownloadUpdated:
		dl = cur.Update(a.ID, a.Patch, a.At)
	case DownloadSynced:
		dl = cur.Sync(a.ID, a.Generation, a.Record, a.At)
	case DownloadCompleted:
		dl = cur.Complete(a.ID, a.At)
	case DownloadFailed:
		dl = cur.Fail(a.ID, a.Err, a.At)
	case DownloadCancelled:
		dl = cur.Cancel(a.ID, a.At)
	case DownloadRemoved:
		dl = cur.Remove(a.ID)
	case DownloadsFinishedCleared:
		dl = cur.RemoveFinished()
	case DownloadsCleared:
		if cur.Len() == 0 {
			return s
		}
		dl = cur.ClearAll()
	default:
		return s
	}

	if dl.Revision() == cur.Revision() && err == nil {
		return s
	}
	next := *s
	next.Downloads = dl
	if err != nil {
		e := *err
		next.Error = &e
	}
	return &next
}

func reduceNotifications(s *State, a Action) *State {
	list := s.Notifications
	switch a := a.(type) {
	case NotificationAdded:
		if slices.ContainsFunc(list, func(n catalog.Notification) bool { return n.ID == a.Notification.ID }) {
			return s
		}
		list = append(slices.Clip(list), a.Notification)
	case NotificationRemoved:
		i := slices.IndexFunc(list, func(n catalog.Notification) bool { return n.ID == a.ID })
		if i < 0 {
			return s
		}
		list = slices.Delete(slices.Clone(list), i, i+1)
	case NotificationsCleared:
		if len(list) == 0 {
			return s
		}
		list = nil
	}
	next := *s
	next.Notifications = list
	return &next
}
