package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_NewMail(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"new-mail","source_id":"acct-1","subject":"Hello","from":"sarah@acme.test"}`))
	require.NoError(t, err)

	mail, ok := ev.(NewMail)
	require.True(t, ok)
	require.Equal(t, "acct-1", mail.SourceID)
	require.Equal(t, "Hello", mail.Subject)
	require.Equal(t, "sarah@acme.test", mail.From)
}

func TestDecode_NewMailWithoutSource(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"new-mail","subject":"Hello","from":"x@y.test"}`))
	require.NoError(t, err)
	require.Empty(t, ev.(NewMail).SourceID)
}

func TestDecode_UnreadSnapshot(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"unread-count","source_id":"acct-1","count":7}`))
	require.NoError(t, err)

	snap, ok := ev.(UnreadSnapshot)
	require.True(t, ok)
	require.Equal(t, 7, snap.Count)

	// The long form of the event name is accepted too.
	ev, err = Decode([]byte(`{"event":"unread-count-snapshot","source_id":"acct-1","count":0}`))
	require.NoError(t, err)
	require.Equal(t, 0, ev.(UnreadSnapshot).Count)
}

func TestDecode_SyncComplete(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"sync-complete","source_id":"acct-1","new_count":3}`))
	require.NoError(t, err)

	sync, ok := ev.(SyncComplete)
	require.True(t, ok)
	require.Equal(t, 3, sync.NewCount)
}

func TestDecode_ToleratesUnknownFields(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"new-mail","source_id":"acct-1","subject":"s","from":"f","ts":"2026-08-30T10:00:00Z","trace_id":"abc","nested":{"x":1}}`))
	require.NoError(t, err)
	require.Equal(t, "acct-1", ev.(NewMail).SourceID)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "empty", line: ""},
		{name: "not json", line: "hello"},
		{name: "missing event name", line: `{"source_id":"acct-1"}`},
		{name: "snapshot without count", line: `{"event":"unread-count","source_id":"acct-1"}`},
		{name: "negative count", line: `{"event":"unread-count","source_id":"acct-1","count":-2}`},
		{name: "negative new_count", line: `{"event":"sync-complete","new_count":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			require.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestDecode_UnknownEventName(t *testing.T) {
	_, err := Decode([]byte(`{"event":"mailbox-renamed","source_id":"acct-1"}`))
	require.ErrorIs(t, err, ErrUnknownEvent)
}
