package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	eventCh chan Event
	stateCh chan ConnState
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		eventCh: make(chan Event, 64),
		stateCh: make(chan ConnState, 64),
	}
}

func (h *recordingHandler) HandleEvent(ev Event) {
	h.eventCh <- ev
}

func (h *recordingHandler) HandleConnState(state ConnState) {
	h.stateCh <- state
}

func (h *recordingHandler) waitEvent(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.eventCh:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (h *recordingHandler) waitState(t *testing.T, want ConnState) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case state := <-h.stateCh:
			if state == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

// acceptSubscriber accepts one connection, validates the subscribe
// handshake and acks it.
func acceptSubscriber(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()

	conn, err := ln.Accept()
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var req subscribeRequest
	require.NoError(t, json.Unmarshal(line, &req))
	require.Equal(t, "subscribe", req.Cmd)
	require.True(t, req.Resync, "every (re)connect must request a resync")

	_, err = conn.Write([]byte(`{"ok":true}` + "\n"))
	require.NoError(t, err)
	return conn
}

func testClient(t *testing.T, addr string, handler Handler) *Client {
	t.Helper()
	c := NewClient(Config{
		Addr:              addr,
		ClientID:          "test-client",
		DialTimeout:       time.Second,
		ReconnectInterval: 50 * time.Millisecond,
	}, handler)
	t.Cleanup(c.Stop)
	return c
}

func TestClient_ConnectAndStream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := newRecordingHandler()
	c := testClient(t, ln.Addr().String(), handler)
	require.NoError(t, c.Start(context.Background()))

	conn := acceptSubscriber(t, ln)
	defer conn.Close()

	handler.waitState(t, StateConnecting)
	handler.waitState(t, StateConnected)

	_, err = conn.Write([]byte(`{"event":"new-mail","source_id":"acct-1","subject":"hi","from":"a@b.test"}` + "\n"))
	require.NoError(t, err)

	ev := handler.waitEvent(t)
	require.Equal(t, NewMail{SourceID: "acct-1", Subject: "hi", From: "a@b.test"}, ev)
}

func TestClient_DropsMalformedLinesAndKeepsStreaming(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := newRecordingHandler()
	c := testClient(t, ln.Addr().String(), handler)
	require.NoError(t, c.Start(context.Background()))

	conn := acceptSubscriber(t, ln)
	defer conn.Close()
	handler.waitState(t, StateConnected)

	_, err = conn.Write([]byte("not json at all\n" +
		`{"event":"mystery-event"}` + "\n" +
		`{"event":"unread-count","source_id":"acct-1","count":4}` + "\n"))
	require.NoError(t, err)

	ev := handler.waitEvent(t)
	require.Equal(t, UnreadSnapshot{SourceID: "acct-1", Count: 4}, ev)
}

func TestClient_ReconnectAfterDrop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := newRecordingHandler()
	c := testClient(t, ln.Addr().String(), handler)
	require.NoError(t, c.Start(context.Background()))

	conn := acceptSubscriber(t, ln)
	handler.waitState(t, StateConnected)

	// Server drops the connection.
	require.NoError(t, conn.Close())
	handler.waitState(t, StateReconnecting)

	// The client comes back with a fresh subscribe (and resync).
	conn2 := acceptSubscriber(t, ln)
	defer conn2.Close()
	handler.waitState(t, StateConnected)

	_, err = conn2.Write([]byte(`{"event":"sync-complete","source_id":"acct-1","new_count":2}` + "\n"))
	require.NoError(t, err)
	require.Equal(t, SyncComplete{SourceID: "acct-1", NewCount: 2}, handler.waitEvent(t))
}

func TestClient_StopForcesDisconnected(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := newRecordingHandler()
	c := testClient(t, ln.Addr().String(), handler)
	require.NoError(t, c.Start(context.Background()))

	conn := acceptSubscriber(t, ln)
	defer conn.Close()
	handler.waitState(t, StateConnected)

	c.Stop()
	handler.waitState(t, StateDisconnected)
	require.Equal(t, StateDisconnected, c.State())
}

func TestClient_StartTwiceErrors(t *testing.T) {
	handler := newRecordingHandler()
	c := testClient(t, "127.0.0.1:1", handler)

	require.NoError(t, c.Start(context.Background()))
	require.ErrorIs(t, c.Start(context.Background()), ErrClientAlreadyRunning)
}

func TestClient_RejectedSubscribeRetries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := newRecordingHandler()
	c := testClient(t, ln.Addr().String(), handler)
	require.NoError(t, c.Start(context.Background()))

	// First attempt: refuse the subscription.
	conn, err := ln.Accept()
	require.NoError(t, err)
	_, err = bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)
	_, err = conn.Write([]byte(`{"ok":false,"error":"not authorized"}` + "\n"))
	require.NoError(t, err)
	_ = conn.Close()

	// The client retries and succeeds.
	conn2 := acceptSubscriber(t, ln)
	defer conn2.Close()
	handler.waitState(t, StateConnected)
}

func TestSplitFeedAddr(t *testing.T) {
	tests := []struct {
		in      string
		network string
		addr    string
	}{
		{in: "tcp://10.0.0.1:8743", network: "tcp", addr: "10.0.0.1:8743"},
		{in: "unix:///tmp/feed.sock", network: "unix", addr: "/tmp/feed.sock"},
		{in: "127.0.0.1:8743", network: "tcp", addr: "127.0.0.1:8743"},
	}

	for _, tt := range tests {
		network, addr := splitFeedAddr(tt.in)
		require.Equal(t, tt.network, network)
		require.Equal(t, tt.addr, addr)
	}
}
