// Package nav owns the sidebar navigation model: the static link catalog,
// the live inbox-source list, expand/collapse state and the active route.
package nav

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hellonolen/triopia-mail/internal/logging"
	"github.com/hellonolen/triopia-mail/internal/prefs"
)

// Group identifies a sidebar section.
type Group string

const (
	GroupCore     Group = "core"
	GroupInboxes  Group = "inboxes"
	GroupTools    Group = "tools"
	GroupSettings Group = "settings"
)

// SourceKind distinguishes a single mailbox from a domain aggregate.
type SourceKind string

const (
	KindAddress SourceKind = "address"
	KindDomain  SourceKind = "domain"
)

// Default list-truncation constants. Overridable through Options.
const (
	DefaultVirtualizeThreshold = 20
	DefaultVirtualizeMax       = 30
)

// Entry is one static sidebar link. Entries are configuration, not user
// data, and are immutable after Initialize.
type Entry struct {
	Label string
	Path  string
	Group Group
	Count int // display-only badge, 0 means none
}

// Source is one user-configured mailbox or domain aggregate shown as a
// collapsible roll-up in the sidebar.
type Source struct {
	ID     string
	Label  string
	Kind   SourceKind
	Unread int
}

// Saver persists the durable subset of the navigation state. Writes are
// fire-and-forget from the store's perspective.
type Saver interface {
	Save(p prefs.Prefs)
}

// Options tunes store behavior.
type Options struct {
	// VirtualizeThreshold is the filtered-source count above which the
	// visible list is truncated.
	VirtualizeThreshold int

	// VirtualizeMax is the number of sources kept once truncating.
	VirtualizeMax int

	// ChildSegments are the route segments recognized as per-source child
	// routes (/{segment}/{sourceID}).
	ChildSegments []string
}

func (o Options) withDefaults() Options {
	if o.VirtualizeThreshold <= 0 {
		o.VirtualizeThreshold = DefaultVirtualizeThreshold
	}
	if o.VirtualizeMax <= 0 {
		o.VirtualizeMax = DefaultVirtualizeMax
	}
	if len(o.ChildSegments) == 0 {
		o.ChildSegments = defaultChildSegments()
	}
	return o
}

// Store is the single source of truth for what the sidebar displays and
// which entry is current. All methods are safe for concurrent use; the
// mutex preserves the single-writer discipline between UI mutations and
// feed-driven count updates.
type Store struct {
	logger zerolog.Logger
	saver  Saver
	opts   Options

	mu          sync.Mutex
	entries     []Entry
	sources     []Source
	sourceIndex map[string]int
	expanded    map[string]bool
	collapsed   map[Group]bool
	lastSource  string
	unassigned  int // unread bucket for events without an addressable source
	searchQuery string
	activeRoute string
}

// NewStore creates an empty Store. Call Initialize before use.
func NewStore(saver Saver, opts Options) *Store {
	return &Store{
		logger:      logging.Component("nav-store"),
		saver:       saver,
		opts:        opts.withDefaults(),
		sourceIndex: make(map[string]int),
		expanded:    make(map[string]bool),
		collapsed:   make(map[Group]bool),
	}
}

// Initialize merges the static entry catalog with the live source list and
// rehydrated preferences. The source list is authoritative: persisted
// expanded entries whose id no longer exists are dropped. The search query
// is reset. Safe to call again on a catalog refresh.
func (s *Store) Initialize(catalog []Entry, sources []Source, p prefs.Prefs) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]Entry(nil), catalog...)
	s.sources = make([]Source, 0, len(sources))
	s.sourceIndex = make(map[string]int, len(sources))
	for _, src := range sources {
		id := strings.TrimSpace(src.ID)
		if id == "" {
			continue
		}
		if _, dup := s.sourceIndex[id]; dup {
			s.logger.Warn().Str("source_id", id).Msg("duplicate source id in catalog, keeping first")
			continue
		}
		src.ID = id
		if src.Unread < 0 {
			src.Unread = 0
		}
		s.sourceIndex[id] = len(s.sources)
		s.sources = append(s.sources, src)
	}

	s.expanded = make(map[string]bool, len(p.Expanded))
	for id, open := range p.Expanded {
		if _, ok := s.sourceIndex[id]; !ok {
			s.logger.Debug().Str("source_id", id).Msg("dropping stale expanded entry")
			continue
		}
		s.expanded[id] = open
	}

	// First-run ergonomics: the inbox list starts collapsed, the other
	// groups start open. Persisted values always win.
	s.collapsed = map[Group]bool{
		GroupInboxes:  true,
		GroupTools:    false,
		GroupSettings: false,
	}
	if p.InboxesCollapsed != nil {
		s.collapsed[GroupInboxes] = *p.InboxesCollapsed
	}
	if p.ToolsCollapsed != nil {
		s.collapsed[GroupTools] = *p.ToolsCollapsed
	}
	if p.SettingsCollapsed != nil {
		s.collapsed[GroupSettings] = *p.SettingsCollapsed
	}

	if _, ok := s.sourceIndex[p.LastSource]; ok {
		s.lastSource = p.LastSource
	} else {
		s.lastSource = ""
	}

	s.searchQuery = ""
}

// ToggleExpanded flips a source roll-up open or closed. Unknown ids are a
// no-op. The whole expanded-map is persisted as one snapshot.
func (s *Store) ToggleExpanded(sourceID string) {
	s.mu.Lock()
	if _, ok := s.sourceIndex[sourceID]; !ok {
		s.mu.Unlock()
		return
	}
	s.expanded[sourceID] = !s.expanded[sourceID]
	s.lastSource = sourceID
	snapshot := s.prefsLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

// Expanded reports whether a source roll-up is open.
func (s *Store) Expanded(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[sourceID]
}

// ToggleGroupCollapsed flips one of the three collapsible group headers.
// GroupCore is always visible and unknown groups are a no-op.
func (s *Store) ToggleGroupCollapsed(group Group) {
	s.mu.Lock()
	switch group {
	case GroupInboxes, GroupTools, GroupSettings:
	default:
		s.mu.Unlock()
		return
	}
	s.collapsed[group] = !s.collapsed[group]
	snapshot := s.prefsLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

// GroupCollapsed reports whether a group header is collapsed.
func (s *Store) GroupCollapsed(group Group) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collapsed[group]
}

// SetSearchQuery filters the visible source list. Transient: never
// persisted, cleared on Initialize.
func (s *Store) SetSearchQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = text
}

// SearchQuery returns the current inbox-list filter text.
func (s *Store) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchQuery
}

// VisibleSources returns the source list after search filtering and the
// virtualization cutoff, in catalog order. The cutoff is a plain
// truncation, not windowed rendering.
func (s *Store) VisibleSources() []Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(s.searchQuery))
	filtered := make([]Source, 0, len(s.sources))
	for _, src := range s.sources {
		if query != "" && !strings.Contains(strings.ToLower(src.Label), query) {
			continue
		}
		filtered = append(filtered, src)
	}

	if len(filtered) > s.opts.VirtualizeThreshold && len(filtered) > s.opts.VirtualizeMax {
		filtered = filtered[:s.opts.VirtualizeMax]
	}
	return filtered
}

// Entries returns the static links belonging to one group, in declared
// order.
func (s *Store) Entries(group Group) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

// Source returns a source by id.
func (s *Store) Source(sourceID string) (Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.sourceIndex[sourceID]
	if !ok {
		return Source{}, false
	}
	return s.sources[idx], true
}

// LastSource returns the id of the most recently selected source, or "".
func (s *Store) LastSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSource
}

// ApplyUnreadDelta adjusts a source's unread count, clamped at zero. An
// empty id addresses the unassigned bucket; an unknown id is a no-op so a
// stale event cannot resurrect a removed source.
func (s *Store) ApplyUnreadDelta(sourceID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sourceID == "" {
		s.unassigned += delta
		if s.unassigned < 0 {
			s.unassigned = 0
		}
		return
	}

	idx, ok := s.sourceIndex[sourceID]
	if !ok {
		s.logger.Debug().Str("source_id", sourceID).Msg("unread delta for unknown source")
		return
	}
	s.sources[idx].Unread += delta
	if s.sources[idx].Unread < 0 {
		s.sources[idx].Unread = 0
	}
}

// SetUnreadSnapshot replaces a source's unread count with an authoritative
// value, discarding any interim accumulation. Unknown ids are a no-op.
func (s *Store) SetUnreadSnapshot(sourceID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count < 0 {
		count = 0
	}
	if sourceID == "" {
		s.unassigned = count
		return
	}

	idx, ok := s.sourceIndex[sourceID]
	if !ok {
		s.logger.Debug().Str("source_id", sourceID).Msg("unread snapshot for unknown source")
		return
	}
	s.sources[idx].Unread = count
}

// UnassignedUnread returns the unread bucket for events that carried no
// addressable source.
func (s *Store) UnassignedUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unassigned
}

// TotalUnread sums all per-source counts plus the unassigned bucket.
func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.unassigned
	for _, src := range s.sources {
		total += src.Unread
	}
	return total
}

// prefsLocked builds the durable snapshot. Caller holds s.mu.
func (s *Store) prefsLocked() prefs.Prefs {
	expanded := make(map[string]bool, len(s.expanded))
	for id, open := range s.expanded {
		expanded[id] = open
	}
	inboxes := s.collapsed[GroupInboxes]
	tools := s.collapsed[GroupTools]
	settings := s.collapsed[GroupSettings]
	return prefs.Prefs{
		Expanded:          expanded,
		InboxesCollapsed:  &inboxes,
		ToolsCollapsed:    &tools,
		SettingsCollapsed: &settings,
		LastSource:        s.lastSource,
	}
}

func (s *Store) persist(p prefs.Prefs) {
	if s.saver == nil {
		return
	}
	s.saver.Save(p)
}
