package app

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/crate/internal/poller"
	"github.com/llehouerou/crate/internal/store"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SearchMessage:
		return m.handleSearchMessage(msg)

	case DownloadMessage:
		return m.handleDownloadMessage(msg)

	case poller.StatusMsg:
		return m.handleStatus(msg)

	case NotificationExpiredMsg:
		m.Store.Dispatch(store.NotificationRemoved{ID: msg.ID})
		return m, nil

	case HistoryLoadedMsg:
		m.Queries = msg.Queries
		return m, nil

	case clockMsg:
		return m, ClockTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if m.Searching {
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchMessage(msg SearchMessage) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SearchResultMsg:
		return m.handleSearchResult(msg)
	case AlbumsLoadedMsg:
		return m.handleAlbumsLoaded(msg)
	}
	return m, nil
}

func (m Model) handleDownloadMessage(msg DownloadMessage) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DownloadInitiatedMsg:
		return m.handleInitiated(msg)
	case DownloadCancelResultMsg:
		return m.handleCancelResult(msg)
	case CancelAllResultMsg:
		return m.handleCancelAllResult(msg)
	}
	return m, nil
}
