// Package reconcile folds the unordered, at-least-once push feed into
// sensible badge counts on the navigation model. Between snapshots the
// counts are best-effort; every snapshot makes them exact again.
package reconcile

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hellonolen/triopia-mail/internal/feed"
	"github.com/hellonolen/triopia-mail/internal/logging"
	"github.com/hellonolen/triopia-mail/internal/nav"
)

// Counts is the reconciler's write surface on the navigation model.
type Counts interface {
	ApplyUnreadDelta(sourceID string, delta int)
	SetUnreadSnapshot(sourceID string, count int)
}

var _ Counts = (*nav.Store)(nil)

// Reconciler applies feed events to the navigation model and raises
// transient notifications. It implements feed.Handler.
type Reconciler struct {
	logger zerolog.Logger
	counts Counts
	center *Center

	mu       sync.Mutex
	state    feed.ConnState
	torndown bool
}

// New creates a reconciler writing into counts and center.
func New(counts Counts, center *Center) *Reconciler {
	return &Reconciler{
		logger: logging.Component("reconciler"),
		counts: counts,
		center: center,
		state:  feed.StateDisconnected,
	}
}

// ConnState returns the last observed feed connection state.
func (r *Reconciler) ConnState() feed.ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Teardown stops event processing permanently. Counts are neither zeroed
// nor frozen: whatever was accumulated stays until the next session.
func (r *Reconciler) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.torndown = true
	r.state = feed.StateDisconnected
}

// HandleConnState records feed lifecycle transitions. The feed client
// requests a resync on every (re)connect, so the snapshot that follows is
// what repairs any drift accumulated while disconnected.
func (r *Reconciler) HandleConnState(state feed.ConnState) {
	r.mu.Lock()
	if r.torndown {
		r.mu.Unlock()
		return
	}
	prev := r.state
	r.state = state
	r.mu.Unlock()

	if prev != state {
		r.logger.Info().Stringer("from", prev).Stringer("to", state).Msg("feed state changed")
	}
}

// HandleEvent folds one decoded feed event into the model.
//
// Duplicate new-mail delivery is applied as-is: the feed guarantees
// at-least-once, events carry no sequence number, and the next snapshot
// corrects any over-count.
func (r *Reconciler) HandleEvent(ev feed.Event) {
	r.mu.Lock()
	if r.torndown || r.state != feed.StateConnected {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	switch e := ev.(type) {
	case feed.NewMail:
		r.counts.ApplyUnreadDelta(e.SourceID, 1)
		if r.center != nil {
			r.center.Push(e.SourceID, newMailTitle(e), e.Subject)
		}
		r.logger.Debug().Str("source_id", e.SourceID).Str("from", e.From).Msg("new mail")

	case feed.UnreadSnapshot:
		r.counts.SetUnreadSnapshot(e.SourceID, e.Count)
		r.logger.Debug().Str("source_id", e.SourceID).Int("count", e.Count).Msg("unread snapshot")

	case feed.SyncComplete:
		if e.NewCount > 0 && r.center != nil {
			r.center.Push(e.SourceID, "Sync finished", fmt.Sprintf("%d new messages", e.NewCount))
		}
		r.logger.Debug().Str("source_id", e.SourceID).Int("new_count", e.NewCount).Msg("sync complete")

	default:
		// Decode only produces the three kinds above; anything else is a
		// programming error worth noticing in logs.
		r.logger.Warn().Str("kind", string(ev.Kind())).Msg("unhandled feed event")
	}
}

func newMailTitle(e feed.NewMail) string {
	from := strings.TrimSpace(e.From)
	if from == "" {
		return "New mail"
	}
	return "New mail from " + from
}
