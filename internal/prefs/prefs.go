// Package prefs persists the durable subset of the navigation state: the
// expanded-map, the group collapsed flags, the last-selected source and the
// pager size. Storage failures degrade the store to memory for the rest of
// the session; they are never surfaced to the caller.
package prefs

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hellonolen/triopia-mail/internal/logging"
)

// Key namespace: one key per concern under a shared versioned prefix so
// each sub-schema can evolve without migrating the others.
const (
	keyPrefix = "navprefs/v1/"

	keyExpanded          = keyPrefix + "expanded"
	keyCollapsedInboxes  = keyPrefix + "collapsed/inboxes"
	keyCollapsedTools    = keyPrefix + "collapsed/tools"
	keyCollapsedSettings = keyPrefix + "collapsed/settings"
	keyLastSource        = keyPrefix + "last_source"
	keyPagerSize         = keyPrefix + "pager_size"
)

// Prefs is the durable navigation preference snapshot. A nil collapsed
// flag means "no persisted value, use the first-run default".
type Prefs struct {
	Expanded          map[string]bool
	InboxesCollapsed  *bool
	ToolsCollapsed    *bool
	SettingsCollapsed *bool
	LastSource        string
	PagerSize         int
}

// Clone returns a deep copy.
func (p Prefs) Clone() Prefs {
	out := p
	if p.Expanded != nil {
		out.Expanded = make(map[string]bool, len(p.Expanded))
		for k, v := range p.Expanded {
			out.Expanded[k] = v
		}
	}
	out.InboxesCollapsed = cloneFlag(p.InboxesCollapsed)
	out.ToolsCollapsed = cloneFlag(p.ToolsCollapsed)
	out.SettingsCollapsed = cloneFlag(p.SettingsCollapsed)
	return out
}

func cloneFlag(f *bool) *bool {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// KV is the key-value storage collaborator. Get reports absence through
// the ok result, never as an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store is the persistence bridge between the navigation model and a KV
// backend. Reads after a Save within one session always observe the saved
// snapshot, even while degraded.
type Store struct {
	logger zerolog.Logger
	kv     KV

	mu       sync.Mutex
	degraded bool
	last     Prefs
}

// NewStore creates a preference store over the given KV backend. A nil
// backend starts the store in memory-only mode.
func NewStore(kv KV) *Store {
	s := &Store{
		logger: logging.Component("prefs"),
		kv:     kv,
	}
	if kv == nil {
		s.degraded = true
	}
	return s
}

// Degraded reports whether the store has fallen back to memory-only.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Load returns the last-written snapshot, or the empty default when
// nothing (or nothing parseable) is stored. Never fails: malformed data is
// logged and treated as absent.
func (s *Store) Load(ctx context.Context) Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		out := s.last.Clone()
		if out.Expanded == nil {
			out.Expanded = make(map[string]bool)
		}
		return out
	}

	var p Prefs

	if raw, ok := s.get(ctx, keyExpanded); ok {
		expanded := make(map[string]bool)
		if err := json.Unmarshal([]byte(raw), &expanded); err != nil {
			s.logger.Warn().Err(err).Str("key", keyExpanded).Msg("discarding malformed expanded-map")
		} else {
			p.Expanded = expanded
		}
	}
	if p.Expanded == nil {
		p.Expanded = make(map[string]bool)
	}

	p.InboxesCollapsed = s.loadFlag(ctx, keyCollapsedInboxes)
	p.ToolsCollapsed = s.loadFlag(ctx, keyCollapsedTools)
	p.SettingsCollapsed = s.loadFlag(ctx, keyCollapsedSettings)

	if raw, ok := s.get(ctx, keyLastSource); ok {
		p.LastSource = raw
	}

	if raw, ok := s.get(ctx, keyPagerSize); ok {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			s.logger.Warn().Str("key", keyPagerSize).Str("value", raw).Msg("discarding malformed pager size")
		} else {
			p.PagerSize = size
		}
	}

	s.last = p.Clone()
	return p
}

// Save overwrites the full snapshot. Last writer wins; concurrent writers
// (other tabs, other processes) are not reconciled. Failures flip the
// store into memory-only mode and are logged, never returned.
func (s *Store) Save(p Prefs) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Expanded == nil {
		p.Expanded = make(map[string]bool)
	}
	prev := s.last
	s.last = p.Clone()
	// Pager size is saved independently of the navigation snapshot; a
	// zero value means "leave the stored value alone".
	if p.PagerSize <= 0 {
		s.last.PagerSize = prev.PagerSize
	}

	if s.degraded {
		return
	}

	ctx := context.Background()

	payload, err := json.Marshal(p.Expanded)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode expanded-map")
		return
	}
	s.set(ctx, keyExpanded, string(payload))
	s.saveFlag(ctx, keyCollapsedInboxes, p.InboxesCollapsed)
	s.saveFlag(ctx, keyCollapsedTools, p.ToolsCollapsed)
	s.saveFlag(ctx, keyCollapsedSettings, p.SettingsCollapsed)
	s.set(ctx, keyLastSource, p.LastSource)
	if p.PagerSize > 0 {
		s.set(ctx, keyPagerSize, strconv.Itoa(p.PagerSize))
	}
}

// SavePagerSize persists just the message-list page size.
func (s *Store) SavePagerSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if size <= 0 {
		return
	}
	s.last.PagerSize = size
	if s.degraded {
		return
	}
	s.set(context.Background(), keyPagerSize, strconv.Itoa(size))
}

func (s *Store) loadFlag(ctx context.Context, key string) *bool {
	raw, ok := s.get(ctx, key)
	if !ok {
		return nil
	}
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		s.logger.Warn().Str("key", key).Str("value", raw).Msg("discarding malformed collapsed flag")
		return nil
	}
}

func (s *Store) saveFlag(ctx context.Context, key string, flag *bool) {
	if flag == nil {
		return
	}
	s.set(ctx, key, strconv.FormatBool(*flag))
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.degrade(err, key)
		return "", false
	}
	return value, ok
}

func (s *Store) set(ctx context.Context, key, value string) {
	if s.degraded {
		return
	}
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.degrade(err, key)
	}
}

func (s *Store) degrade(err error, key string) {
	if s.degraded {
		return
	}
	s.degraded = true
	s.logger.Warn().Err(err).Str("key", key).Msg("preference storage unavailable, continuing in memory")
}
