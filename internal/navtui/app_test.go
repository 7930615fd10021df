package navtui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/hellonolen/triopia-mail/internal/nav"
	"github.com/hellonolen/triopia-mail/internal/prefs"
	"github.com/hellonolen/triopia-mail/internal/reconcile"
)

type discardSaver struct{}

func (discardSaver) Save(prefs.Prefs) {}

func testStore(t *testing.T) *nav.Store {
	t.Helper()
	store := nav.NewStore(discardSaver{}, nav.Options{})
	store.Initialize(
		[]nav.Entry{
			{Label: "All Mail", Path: "/all", Group: nav.GroupCore},
			{Label: "Compose", Path: "/compose", Group: nav.GroupCore},
			{Label: "Rules", Path: "/rules", Group: nav.GroupTools},
			{Label: "Account", Path: "/account", Group: nav.GroupSettings},
		},
		[]nav.Source{
			{ID: "acct-1", Label: "Personal", Kind: nav.KindAddress, Unread: 3},
			{ID: "acct-2", Label: "Work", Kind: nav.KindAddress},
		},
		prefs.Prefs{},
	)
	return store
}

func testModel(t *testing.T) *Model {
	t.Helper()
	return New(Config{
		Store:  testStore(t),
		Center: reconcile.NewCenter(),
	})
}

func rowLabels(rows []row) []string {
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.label)
	}
	return labels
}

func TestModel_RowsLayout(t *testing.T) {
	m := testModel(t)

	require.Equal(t,
		[]string{"All Mail", "Compose", "Inboxes", "Tools", "Rules", "Settings", "Account"},
		rowLabels(m.rows),
		"first run starts with Inboxes collapsed, other groups open")

	// Expanding the Inboxes group reveals the sources.
	m.store.ToggleGroupCollapsed(nav.GroupInboxes)
	m.rebuildRows()
	require.Equal(t,
		[]string{"All Mail", "Compose", "Inboxes", "Personal", "Work", "Tools", "Rules", "Settings", "Account"},
		rowLabels(m.rows))
}

func TestModel_ExpandSourceShowsChildren(t *testing.T) {
	m := testModel(t)
	m.store.ToggleGroupCollapsed(nav.GroupInboxes)
	m.store.ToggleExpanded("acct-1")
	m.rebuildRows()

	var childPaths []string
	for _, r := range m.rows {
		if r.kind == rowChild {
			childPaths = append(childPaths, r.path)
		}
	}
	require.Equal(t, []string{"/inbox/acct-1", "/starred/acct-1", "/sent/acct-1"}, childPaths)
}

func TestModel_EnterOnHeaderTogglesGroup(t *testing.T) {
	m := testModel(t)
	// Row 2 is the Inboxes header on first run.
	m.cursor = 2
	require.Equal(t, rowHeader, m.rows[m.cursor].kind)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.store.GroupCollapsed(nav.GroupInboxes))

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.store.GroupCollapsed(nav.GroupInboxes))
}

func TestModel_EnterOnEntryNavigates(t *testing.T) {
	m := testModel(t)
	m.cursor = 1 // Compose
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	entry, ok := m.store.ActiveEntry()
	require.True(t, ok)
	require.Equal(t, "/compose", entry.Path)
}

func TestModel_SearchFiltersSources(t *testing.T) {
	m := testModel(t)
	m.store.ToggleGroupCollapsed(nav.GroupInboxes)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.True(t, m.searching)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("work")})
	labels := rowLabels(m.rows)
	require.Contains(t, labels, "Work")
	require.NotContains(t, labels, "Personal")

	// Esc cancels the filter and restores the full list.
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.searching)
	require.Contains(t, rowLabels(m.rows), "Personal")
}

func TestModel_CursorClampedOnShrink(t *testing.T) {
	m := testModel(t)
	m.store.ToggleGroupCollapsed(nav.GroupInboxes)
	m.rebuildRows()
	m.cursor = len(m.rows) - 1

	m.store.ToggleGroupCollapsed(nav.GroupInboxes)
	m.rebuildRows()
	require.Less(t, m.cursor, len(m.rows))
}

func TestModel_ViewRenders(t *testing.T) {
	m := testModel(t)
	m.width = 40
	m.height = 20

	out := m.View()
	require.Contains(t, out, "Inboxes")
	require.Contains(t, out, "All Mail")
	require.Contains(t, out, "offline")
}
