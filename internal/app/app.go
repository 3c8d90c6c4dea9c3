package app

import (
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/history"
	"github.com/llehouerou/crate/internal/poller"
	"github.com/llehouerou/crate/internal/selection"
	"github.com/llehouerou/crate/internal/service"
	"github.com/llehouerou/crate/internal/store"
)

// Pane is the list that receives navigation keys.
type Pane int

const (
	PaneArtists Pane = iota
	PaneAlbums
	PaneDownloads
	paneCount
)

// Deps are the collaborators of the application model.
type Deps struct {
	Service   service.Service
	Poller    *poller.Poller
	Persister *selection.Persister
	History   *history.History
	Options   service.Options
	Logger    zerolog.Logger

	// InitialQuery is searched on startup when set.
	InitialQuery string
}

// Model is the root application model.
type Model struct {
	Store     *store.Store
	Service   service.Service
	Poller    *poller.Poller
	Persister *selection.Persister
	History   *history.History
	Options   service.Options
	Logger    zerolog.Logger

	Input      textinput.Model
	Searching  bool
	Queries    []string // search history, most recent first
	historyIdx int

	Spinner spinner.Model
	Focus   Pane
	Cursors [paneCount]int
	Anchor  int // range selection anchor in the album list

	Width  int
	Height int

	initialQuery string
	unsubscribe  func()
	now          func() time.Time
	newToken     func() string
}

// New creates the application model.
func New(deps Deps) Model {
	input := textinput.New()
	input.Placeholder = "Search artists"
	input.Prompt = "/ "
	input.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	st := store.New(nil, deps.Logger)
	unsubscribe := st.Subscribe(persistSelection(deps.Persister))

	return Model{
		Store:        st,
		Service:      deps.Service,
		Poller:       deps.Poller,
		Persister:    deps.Persister,
		History:      deps.History,
		Options:      deps.Options,
		Logger:       deps.Logger,
		Input:        input,
		Spinner:      sp,
		Anchor:       selection.NoAnchor,
		historyIdx:   -1,
		initialQuery: deps.InitialQuery,
		unsubscribe:  unsubscribe,
		now:          time.Now,
		newToken:     uuid.NewString,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Spinner.Tick, ClockTickCmd()}
	if m.History != nil {
		cmds = append(cmds, LoadHistoryCmd(m.History))
	}
	if m.initialQuery != "" {
		m.Store.Dispatch(store.SearchStarted{Query: m.initialQuery})
		cmds = append(cmds, SearchCmd(m.Service, m.initialQuery))
	}
	return tea.Batch(cmds...)
}

// Close detaches the model from its store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// persistSelection saves the selection whenever the user changes it. Resets
// caused by a new artist or album list are not saved, so a stored selection
// survives until the albums it belongs to are shown again.
func persistSelection(p *selection.Persister) store.Listener {
	return func(prev, next *store.State) {
		if p == nil || next.Search.Artist == nil {
			return
		}
		if next.Selection.Selected.Equal(prev.Selection.Selected) {
			return
		}
		if prev.Search.Artist != next.Search.Artist || !sameAlbums(prev.Search.Albums, next.Search.Albums) {
			return
		}
		p.Save(next.Selection.Selected, next.Search.Artist.ID)
	}
}

func sameAlbums(a, b []catalog.Album) bool {
	return slices.EqualFunc(a, b, func(x, y catalog.Album) bool { return x.ID == y.ID })
}
