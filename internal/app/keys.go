package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/crate/internal/errmsg"
	"github.com/llehouerou/crate/internal/selection"
	"github.com/llehouerou/crate/internal/store"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Searching {
		return m.handleSearchKey(msg)
	}

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "/":
		m.Searching = true
		m.historyIdx = -1
		m.Input.SetValue("")
		return m, m.Input.Focus()
	case "tab":
		m.Focus = (m.Focus + 1) % paneCount
	case "shift+tab":
		m.Focus = (m.Focus + paneCount - 1) % paneCount
	case "esc":
		m.Store.Dispatch(store.ErrorCleared{})
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "shift+up", "K":
		if m.Focus == PaneAlbums {
			m.moveCursor(-1)
			m.selectAtCursor(selection.Modifiers{Shift: true})
		}
	case "shift+down", "J":
		if m.Focus == PaneAlbums {
			m.moveCursor(1)
			m.selectAtCursor(selection.Modifiers{Shift: true})
		}
	case "enter":
		switch m.Focus {
		case PaneArtists:
			return m.selectArtist()
		case PaneAlbums:
			m.selectAtCursor(selection.Modifiers{})
		}
	case " ":
		if m.Focus == PaneAlbums {
			m.selectAtCursor(selection.Modifiers{Ctrl: true})
		}
	case "a":
		m.Store.Dispatch(store.SelectAllToggled{})
	case "d":
		return m.startDownloads()
	case "c":
		if m.Focus == PaneDownloads {
			return m.cancelAtCursor()
		}
	case "X":
		return m.cancelAll()
	case "C":
		m.Store.Dispatch(store.DownloadsFinishedCleared{})
		m.clampCursors()
	case "R":
		if m.Focus == PaneDownloads {
			m.removeAtCursor()
		}
	case "ctrl+r":
		return m.refresh()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitSearch()
	case "esc":
		m.Searching = false
		m.Input.Blur()
		return m, nil
	case "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "up":
		if len(m.Queries) > 0 {
			m.historyIdx = min(m.historyIdx+1, len(m.Queries)-1)
			m.Input.SetValue(m.Queries[m.historyIdx])
			m.Input.CursorEnd()
		}
		return m, nil
	case "down":
		if m.historyIdx >= 0 {
			m.historyIdx--
		}
		if m.historyIdx < 0 {
			m.Input.SetValue("")
		} else {
			m.Input.SetValue(m.Queries[m.historyIdx])
		}
		m.Input.CursorEnd()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) submitSearch() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.Input.Value())
	m.Searching = false
	m.Input.Blur()
	if query == "" {
		return m, nil
	}

	if m.History != nil {
		queries, err := m.History.Add(query)
		if err != nil {
			m.Logger.Warn().Msg(errmsg.Format(errmsg.OpHistorySave, err))
		} else {
			m.Queries = queries
		}
	}

	m.Store.Dispatch(store.SearchStarted{Query: query})
	m.Focus = PaneArtists
	m.Cursors[PaneArtists] = 0
	return m, SearchCmd(m.Service, query)
}

// paneLen returns the number of rows in pane p.
func (m *Model) paneLen(p Pane) int {
	st := m.Store.State()
	switch p {
	case PaneArtists:
		return len(st.Search.Results.Artists)
	case PaneAlbums:
		return len(st.Search.Albums)
	case PaneDownloads:
		return st.Downloads.Len()
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	n := m.paneLen(m.Focus)
	if n == 0 {
		m.Cursors[m.Focus] = 0
		return
	}
	m.Cursors[m.Focus] = min(max(m.Cursors[m.Focus]+delta, 0), n-1)
}

func (m *Model) clampCursors() {
	for p := range paneCount {
		m.Cursors[p] = min(m.Cursors[p], max(m.paneLen(p)-1, 0))
	}
}

// selectAtCursor applies a keyboard selection on the album under the cursor.
func (m *Model) selectAtCursor(mods selection.Modifiers) {
	st := m.Store.State()
	albums := st.Search.Albums
	i := m.Cursors[PaneAlbums]
	if i < 0 || i >= len(albums) {
		return
	}
	mods.LastIndex = m.Anchor
	res := selection.HandleKeyboardSelection(albums, st.Selection.Selected, albums[i].ID, mods)
	m.Anchor = res.LastIndex
	m.Store.Dispatch(store.SelectionReplaced{Selection: res.Selection})
}
