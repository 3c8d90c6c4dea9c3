package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/selection"
	"github.com/llehouerou/crate/internal/store"
)

// Symbols for status indicators
const (
	completedSymbol = "\u2713" // ✓
	failedSymbol    = "\u2717" // ✗
	cancelledSymbol = "\u2298" // ⊘
	downloadingIcon = "\u21E9" // ⇩
	pendingIcon     = "\u25CB" // ○
	checkedBox      = "[x]"
	partialBox      = "[-]"
	emptyBox        = "[ ]"
	sepBullet       = " • "
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#a78bfa"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	focusedHeaderStyle = headerStyle.
				Underline(true)

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	downloadingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1a208"))
)

// View renders the application UI.
func (m Model) View() string {
	st := m.Store.State()

	sections := []string{m.renderHeader(st)}
	if m.Searching {
		sections = append(sections, m.Input.View())
	}
	if st.Error != nil {
		sections = append(sections, failedStyle.Render(st.Error.Error()))
	}
	sections = append(sections,
		m.renderArtists(st),
		m.renderAlbums(st),
		m.renderDownloads(st),
	)
	if notes := renderNotifications(st.Notifications); notes != "" {
		sections = append(sections, notes)
	}
	sections = append(sections, mutedStyle.Render(
		"/ search • tab pane • enter open/select • space toggle • a all • d download • c cancel • X cancel all • C clear • ctrl+r refresh • q quit"))

	return strings.Join(sections, "\n\n")
}

func (m Model) renderHeader(st *store.State) string {
	header := titleStyle.Render("crate")
	if st.Search.Query != "" {
		header += mutedStyle.Render(sepBullet + "search: " + st.Search.Query)
	}
	if st.Search.Loading || st.Loading {
		header += " " + m.Spinner.View()
	}
	return header
}

func (m Model) paneTitle(p Pane, title string) string {
	if m.Focus == p {
		return focusedHeaderStyle.Render(title)
	}
	return headerStyle.Render(title)
}

func (m Model) renderRow(p Pane, i int, text string) string {
	if m.Focus == p && m.Cursors[p] == i {
		return cursorStyle.Render("> " + text)
	}
	return "  " + text
}

func (m Model) renderArtists(st *store.State) string {
	artists := st.Search.Results.Artists
	lines := []string{m.paneTitle(PaneArtists, fmt.Sprintf("Artists (%d)", len(artists)))}
	if len(artists) == 0 {
		lines = append(lines, mutedStyle.Render("  No artists"))
	}
	for i, a := range artists {
		text := a.Name
		if st.Search.Artist != nil && st.Search.Artist.ID == a.ID {
			text = completedSymbol + " " + text
		}
		lines = append(lines, m.renderRow(PaneArtists, i, text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAlbums(st *store.State) string {
	albums := st.Search.Albums
	title := fmt.Sprintf("%s Albums (%d selected of %d)",
		selectAllBox(st.Selection.SelectAll), st.Selection.Selected.Len(), len(albums))
	lines := []string{m.paneTitle(PaneAlbums, title)}
	if len(albums) == 0 {
		lines = append(lines, mutedStyle.Render("  No albums"))
	}
	for i, a := range albums {
		box := emptyBox
		if st.IsSelected(a.ID) {
			box = checkedBox
		}
		text := box + " " + a.Title
		if a.Year > 0 {
			text += mutedStyle.Render(fmt.Sprintf(" (%d)", a.Year))
		}
		if n := a.TrackCount(); n > 0 {
			text += mutedStyle.Render(fmt.Sprintf("%s%d tracks", sepBullet, n))
		}
		lines = append(lines, m.renderRow(PaneAlbums, i, text))
	}
	return strings.Join(lines, "\n")
}

func selectAllBox(s selection.AllState) string {
	switch s {
	case selection.AllAll:
		return checkedBox
	case selection.AllSome:
		return partialBox
	default:
		return emptyBox
	}
}

func (m Model) renderDownloads(st *store.State) string {
	c := st.Downloads.Counters()
	title := fmt.Sprintf("Downloads%s%d active%s%d completed%s%d failed",
		sepBullet, c.Active, sepBullet, c.Completed, sepBullet, c.Failed)
	lines := []string{m.paneTitle(PaneDownloads, title)}
	records := st.Downloads.Records()
	if len(records) == 0 {
		lines = append(lines, mutedStyle.Render("  No downloads"))
	}
	now := m.now()
	for i, r := range records {
		lines = append(lines, m.renderRow(PaneDownloads, i, formatRecord(r, now)))
	}
	return strings.Join(lines, "\n")
}

// formatRecord renders one download line: status, title, progress and timing.
func formatRecord(r catalog.DownloadRecord, now time.Time) string {
	parts := []string{statusIcon(r.Status) + " " + r.ArtistName + " - " + r.AlbumTitle}

	switch {
	case r.Status.IsActive():
		progress := fmt.Sprintf("%3.0f%%", r.Progress)
		if r.TotalTracks > 0 {
			progress += fmt.Sprintf(" %d/%d", r.CompletedTracks, r.TotalTracks)
		}
		parts = append(parts, progress)
		if r.Speed > 0 {
			parts = append(parts, humanize.IBytes(uint64(r.Speed))+"/s") //nolint:gosec // speed is positive here
		}
		if r.EstimatedTimeRemaining > 0 {
			parts = append(parts, "ETA "+r.EstimatedTimeRemaining.Round(time.Second).String())
		}
		if r.CurrentTrack != "" {
			parts = append(parts, mutedStyle.Render(r.CurrentTrack))
		}
	case r.Status == catalog.StatusFailed && r.Error != nil:
		parts = append(parts, failedStyle.Render(r.Error.Message))
	default:
		parts = append(parts, mutedStyle.Render(r.Status.String()))
	}

	if !r.StartTime.IsZero() {
		if r.Status.IsTerminal() {
			parts = append(parts, mutedStyle.Render(humanize.Time(r.EndTime)))
		} else {
			parts = append(parts, mutedStyle.Render("started "+humanize.RelTime(r.StartTime, now, "ago", "from now")))
		}
	}
	return strings.Join(parts, sepBullet)
}

func statusIcon(s catalog.Status) string {
	switch s {
	case catalog.StatusCompleted:
		return completedStyle.Render(completedSymbol)
	case catalog.StatusFailed:
		return failedStyle.Render(failedSymbol)
	case catalog.StatusCancelled:
		return mutedStyle.Render(cancelledSymbol)
	case catalog.StatusDownloading, catalog.StatusQueued:
		return downloadingStyle.Render(downloadingIcon)
	default:
		return mutedStyle.Render(pendingIcon)
	}
}

func renderNotifications(notes []catalog.Notification) string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		text := n.Title
		if n.Message != "" {
			text += ": " + n.Message
		}
		switch n.Type {
		case catalog.NotificationSuccess:
			text = completedStyle.Render(text)
		case catalog.NotificationError:
			text = failedStyle.Render(text)
		case catalog.NotificationWarning:
			text = warningStyle.Render(text)
		case catalog.NotificationInfo:
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}
