// Package feed consumes the server push channel: mail-arrival events,
// unread-count snapshots and sync notifications over a long-lived
// line-delimited JSON stream.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Decode errors.
var (
	ErrMalformedEvent = errors.New("malformed feed event")
	ErrUnknownEvent   = errors.New("unknown feed event")
)

// Kind names a feed event type.
type Kind string

const (
	KindNewMail        Kind = "new-mail"
	KindUnreadSnapshot Kind = "unread-count"
	KindSyncComplete   Kind = "sync-complete"
)

// Event is one decoded push event. Exactly one concrete type exists per
// event name; unknown shapes never get past Decode.
type Event interface {
	Kind() Kind
}

// NewMail announces one newly arrived message. SourceID may be empty when
// the server cannot attribute the message to a configured source.
// Delivery is at-least-once and duplicates are not collapsed.
type NewMail struct {
	SourceID string
	Subject  string
	From     string
}

// Kind implements Event.
func (NewMail) Kind() Kind { return KindNewMail }

// UnreadSnapshot is an authoritative absolute unread count for one source,
// superseding any incrementally accumulated count.
type UnreadSnapshot struct {
	SourceID string
	Count    int
}

// Kind implements Event.
func (UnreadSnapshot) Kind() Kind { return KindUnreadSnapshot }

// SyncComplete reports that a background mailbox sync finished.
// Informational: it never mutates counts itself.
type SyncComplete struct {
	SourceID string
	NewCount int
}

// Kind implements Event.
func (SyncComplete) Kind() Kind { return KindSyncComplete }

// wireEvent is the boundary shape. Extra fields the server may add are
// ignored; required fields are validated per event name.
type wireEvent struct {
	Event    string `json:"event"`
	SourceID string `json:"source_id"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	Count    *int   `json:"count"`
	NewCount *int   `json:"new_count"`
}

// Decode parses one feed line into its event type. Unknown event names
// return ErrUnknownEvent; anything structurally unusable returns
// ErrMalformedEvent. Callers drop both with a diagnostic log.
func Decode(line []byte) (Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedEvent)
	}

	var wire wireEvent
	if err := json.Unmarshal(line, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch strings.TrimSpace(wire.Event) {
	case string(KindNewMail):
		return NewMail{
			SourceID: strings.TrimSpace(wire.SourceID),
			Subject:  wire.Subject,
			From:     wire.From,
		}, nil

	case string(KindUnreadSnapshot), "unread-count-snapshot":
		if wire.Count == nil {
			return nil, fmt.Errorf("%w: unread-count without count", ErrMalformedEvent)
		}
		if *wire.Count < 0 {
			return nil, fmt.Errorf("%w: negative unread count %d", ErrMalformedEvent, *wire.Count)
		}
		return UnreadSnapshot{
			SourceID: strings.TrimSpace(wire.SourceID),
			Count:    *wire.Count,
		}, nil

	case string(KindSyncComplete):
		newCount := 0
		if wire.NewCount != nil {
			newCount = *wire.NewCount
		}
		if newCount < 0 {
			return nil, fmt.Errorf("%w: negative new_count %d", ErrMalformedEvent, newCount)
		}
		return SyncComplete{
			SourceID: strings.TrimSpace(wire.SourceID),
			NewCount: newCount,
		}, nil

	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, wire.Event)
	}
}
