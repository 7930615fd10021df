// Package navtui renders the sidebar navigation model in the terminal and
// feeds user input back into it: toggle roll-ups, collapse groups,
// navigate and filter.
package navtui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hellonolen/triopia-mail/internal/feed"
	"github.com/hellonolen/triopia-mail/internal/nav"
	"github.com/hellonolen/triopia-mail/internal/reconcile"
)

const defaultRefreshInterval = 1 * time.Second

// Config holds the collaborators the UI renders.
type Config struct {
	Store           *nav.Store
	Center          *reconcile.Center
	Reconciler      *reconcile.Reconciler
	RefreshInterval time.Duration
}

type refreshTickMsg struct{}

func refreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

type rowKind int

const (
	rowHeader rowKind = iota
	rowEntry
	rowSource
	rowChild
)

// row is one rendered sidebar line.
type row struct {
	kind      rowKind
	group     nav.Group
	path      string
	sourceID  string
	label     string
	badge     int
	expanded  bool
	collapsed bool
	active    bool
}

// Model is the bubbletea model for the sidebar.
type Model struct {
	store   *nav.Store
	center  *reconcile.Center
	recon   *reconcile.Reconciler
	refresh time.Duration

	width  int
	height int

	searching   bool
	searchInput string
	cursor      int
	rows        []row
}

// New creates the sidebar model.
func New(cfg Config) *Model {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	m := &Model{
		store:   cfg.Store,
		center:  cfg.Center,
		recon:   cfg.Reconciler,
		refresh: cfg.RefreshInterval,
	}
	m.rebuildRows()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return refreshTickCmd(m.refresh)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshTickMsg:
		m.rebuildRows()
		return m, refreshTickCmd(m.refresh)

	case tea.KeyMsg:
		if m.searching {
			return m, m.updateSearch(msg)
		}
		return m, m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit

	case "/":
		m.searching = true
		m.searchInput = m.store.SearchQuery()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "enter", " ":
		m.activateRow()
		m.rebuildRows()

	case "esc":
		if m.store.SearchQuery() != "" {
			m.store.SetSearchQuery("")
			m.rebuildRows()
		}
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false

	case "esc":
		m.searching = false
		m.searchInput = ""
		m.store.SetSearchQuery("")

	case "backspace":
		if len(m.searchInput) > 0 {
			m.searchInput = m.searchInput[:len(m.searchInput)-1]
			m.store.SetSearchQuery(m.searchInput)
		}

	default:
		if msg.Type == tea.KeyRunes {
			m.searchInput += string(msg.Runes)
			m.store.SetSearchQuery(m.searchInput)
		}
	}
	m.rebuildRows()
	return nil
}

// activateRow applies the cursor row's action: headers collapse, sources
// expand, links navigate.
func (m *Model) activateRow() {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	switch r.kind {
	case rowHeader:
		m.store.ToggleGroupCollapsed(r.group)
	case rowSource:
		m.store.ToggleExpanded(r.sourceID)
	case rowEntry, rowChild:
		m.store.SetActiveRoute(r.path)
	}
}

// rebuildRows flattens the navigation model into renderable lines.
func (m *Model) rebuildRows() {
	var rows []row

	for _, e := range m.store.Entries(nav.GroupCore) {
		rows = append(rows, m.entryRow(e))
	}

	inboxesCollapsed := m.store.GroupCollapsed(nav.GroupInboxes)
	rows = append(rows, row{
		kind:      rowHeader,
		group:     nav.GroupInboxes,
		label:     "Inboxes",
		badge:     m.store.TotalUnread(),
		collapsed: inboxesCollapsed,
	})
	if !inboxesCollapsed {
		for _, src := range m.store.VisibleSources() {
			expanded := m.store.Expanded(src.ID)
			rows = append(rows, row{
				kind:     rowSource,
				sourceID: src.ID,
				label:    src.Label,
				badge:    src.Unread,
				expanded: expanded,
				active:   m.store.IsSourceActive(src.ID),
			})
			if expanded {
				for _, child := range []string{"inbox", "starred", "sent"} {
					path := "/" + child + "/" + src.ID
					rows = append(rows, row{
						kind:     rowChild,
						sourceID: src.ID,
						path:     path,
						label:    child,
						active:   m.store.ActiveRoute() == path,
					})
				}
			}
		}
	}

	for _, group := range []struct {
		id    nav.Group
		label string
	}{
		{id: nav.GroupTools, label: "Tools"},
		{id: nav.GroupSettings, label: "Settings"},
	} {
		collapsed := m.store.GroupCollapsed(group.id)
		rows = append(rows, row{
			kind:      rowHeader,
			group:     group.id,
			label:     group.label,
			collapsed: collapsed,
		})
		if !collapsed {
			for _, e := range m.store.Entries(group.id) {
				rows = append(rows, m.entryRow(e))
			}
		}
	}

	m.rows = rows
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) entryRow(e nav.Entry) row {
	active := false
	if current, ok := m.store.ActiveEntry(); ok && current.Path == e.Path {
		active = true
	}
	return row{
		kind:   rowEntry,
		group:  e.Group,
		path:   e.Path,
		label:  e.Label,
		badge:  e.Count,
		active: active,
	}
}

func (m *Model) connState() feed.ConnState {
	if m.recon == nil {
		return feed.StateDisconnected
	}
	return m.recon.ConnState()
}

// Run starts the UI and blocks until quit.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
