package navtui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hellonolen/triopia-mail/internal/feed"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	badgeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderSearchLine())
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows <= 0 {
		maxRows = len(m.rows)
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := start + maxRows
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusLine())
	return b.String()
}

func (m *Model) renderRow(r row) string {
	switch r.kind {
	case rowHeader:
		marker := "▾"
		if r.collapsed {
			marker = "▸"
		}
		line := fmt.Sprintf("%s %s", marker, r.label)
		if r.badge > 0 {
			line += " " + badgeStyle.Render(fmt.Sprintf("(%d)", r.badge))
		}
		return headerStyle.Render(line)

	case rowSource:
		marker := "▸"
		if r.expanded {
			marker = "▾"
		}
		line := fmt.Sprintf("  %s %s", marker, r.label)
		if r.badge > 0 {
			line += " " + badgeStyle.Render(fmt.Sprintf("%d", r.badge))
		}
		if r.active {
			return activeStyle.Render(line)
		}
		return line

	case rowChild:
		line := "      " + r.label
		if r.active {
			return activeStyle.Render(line)
		}
		return mutedStyle.Render(line)

	default:
		line := "  " + r.label
		if r.badge > 0 {
			line += " " + badgeStyle.Render(fmt.Sprintf("%d", r.badge))
		}
		if r.active {
			return activeStyle.Render(line)
		}
		return line
	}
}

func (m *Model) renderSearchLine() string {
	if m.searching {
		return "Filter: " + m.searchInput + "█"
	}
	if q := m.store.SearchQuery(); q != "" {
		return mutedStyle.Render("Filter: " + q + "  (esc to clear)")
	}
	return mutedStyle.Render("/ to filter")
}

func (m *Model) renderStatusLine() string {
	var parts []string

	switch m.connState() {
	case feed.StateConnected:
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("● live"))
	case feed.StateConnecting, feed.StateReconnecting:
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render("◌ connecting"))
	default:
		parts = append(parts, mutedStyle.Render("○ offline"))
	}

	if total := m.store.TotalUnread(); total > 0 {
		parts = append(parts, fmt.Sprintf("%d unread", total))
	}
	if un := m.store.UnassignedUnread(); un > 0 {
		parts = append(parts, fmt.Sprintf("%d unassigned", un))
	}
	if m.center != nil {
		if n := m.center.UnreadCount(); n > 0 {
			parts = append(parts, badgeStyle.Render(fmt.Sprintf("%d alerts", n)))
		}
	}

	return mutedStyle.Render(strings.Join(parts, "  ·  "))
}
