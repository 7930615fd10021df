package nav

import (
	"net/url"
	"strings"
)

// sourceQueryParam addresses a source from any route's query string.
const sourceQueryParam = "sourceId"

func defaultChildSegments() []string {
	return []string{"inbox", "starred", "sent", "drafts", "archive", "trash"}
}

// SetActiveRoute records the current route. Pure state transition: no
// storage or network side effects.
func (s *Store) SetActiveRoute(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeRoute = route
}

// ActiveRoute returns the current route.
func (s *Store) ActiveRoute() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRoute
}

// ActiveEntry returns the static entry whose path equals the active route.
// Routes are unique by construction, so at most one entry matches.
func (s *Store) ActiveEntry() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := routePath(s.activeRoute)
	for _, e := range s.entries {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

// ActiveSourceID resolves which source the active route addresses, if any.
//
// Matching rule: a child-route path /{segment}/{sourceID} for a known child
// segment wins; otherwise a sourceId query parameter on any route matches.
// A query parameter never overrides a path match.
func (s *Store) ActiveSourceID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.routeSourceLocked(); id != "" {
		if _, ok := s.sourceIndex[id]; ok {
			return id, true
		}
	}
	return "", false
}

// IsSourceActive reports whether the active route addresses the given
// source.
func (s *Store) IsSourceActive(sourceID string) bool {
	id, ok := s.ActiveSourceID()
	return ok && id == sourceID
}

// routeSourceLocked extracts the source id addressed by the active route,
// or "". Caller holds s.mu.
func (s *Store) routeSourceLocked() string {
	path := routePath(s.activeRoute)

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 2 && segments[1] != "" {
		for _, child := range s.opts.ChildSegments {
			if segments[0] == child {
				return segments[1]
			}
		}
	}

	return routeQueryValue(s.activeRoute, sourceQueryParam)
}

// routePath strips the query string from a route.
func routePath(route string) string {
	if idx := strings.IndexByte(route, '?'); idx >= 0 {
		return route[:idx]
	}
	return route
}

// routeQueryValue returns one query parameter from a route, or "".
func routeQueryValue(route, key string) string {
	idx := strings.IndexByte(route, '?')
	if idx < 0 {
		return ""
	}
	values, err := url.ParseQuery(route[idx+1:])
	if err != nil {
		return ""
	}
	return values.Get(key)
}
