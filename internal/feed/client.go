package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hellonolen/triopia-mail/internal/logging"
)

// Client errors.
var (
	ErrClientAlreadyRunning = errors.New("feed client already running")
)

// ConnState is the feed connection lifecycle state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String implements fmt.Stringer.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Handler receives decoded events and connection state transitions.
// Callbacks run on the client's read goroutine.
type Handler interface {
	HandleEvent(ev Event)
	HandleConnState(state ConnState)
}

// Config holds feed client settings.
type Config struct {
	// Addr is the feed endpoint (tcp://host:port or unix:///path).
	Addr string

	// ClientID identifies this client in the subscribe handshake.
	ClientID string

	// DialTimeout is the per-attempt connection timeout.
	DialTimeout time.Duration

	// ReconnectInterval is the delay between connection attempts. The
	// client retries indefinitely until Stop.
	ReconnectInterval time.Duration
}

// subscribeRequest opens the stream. Resync is always requested: a fresh
// unread snapshot after every (re)connect is the only mechanism that
// repairs drift accumulated while disconnected.
type subscribeRequest struct {
	Cmd      string `json:"cmd"`
	ClientID string `json:"client_id"`
	Resync   bool   `json:"resync"`
	ReqID    string `json:"req_id"`
}

type subscribeResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Client maintains one logical feed connection with automatic reconnection.
type Client struct {
	logger            zerolog.Logger
	handler           Handler
	network           string
	addr              string
	raw               string
	clientID          string
	dialTimeout       time.Duration
	reconnectInterval time.Duration

	mu            sync.Mutex
	state         ConnState
	everConnected bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewClient creates a feed client. The handler must not be nil.
func NewClient(cfg Config, handler Handler) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 2 * time.Second
	}
	network, addr := splitFeedAddr(cfg.Addr)
	return &Client{
		logger:            logging.Component("feed-client"),
		handler:           handler,
		network:           network,
		addr:              addr,
		raw:               cfg.Addr,
		clientID:          strings.TrimSpace(cfg.ClientID),
		dialTimeout:       cfg.DialTimeout,
		reconnectInterval: cfg.ReconnectInterval,
		state:             StateDisconnected,
	}
}

// Addr returns the configured endpoint.
func (c *Client) Addr() string { return c.raw }

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins the connect/read loop.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrClientAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

// Stop tears the connection down and forces a final Disconnected state.
// No events are delivered after Stop returns.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()
	c.setState(StateDisconnected)
}

func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.setState(c.attemptState())

		conn, err := net.DialTimeout(c.network, c.addr, c.dialTimeout)
		if err != nil {
			c.logger.Warn().Err(err).Str("addr", c.raw).Msg("feed dial failed")
			if !sleepUntil(ctx, c.reconnectInterval) {
				return
			}
			continue
		}

		err = c.consume(ctx, conn)
		_ = conn.Close()

		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn().Err(err).Str("addr", c.raw).Msg("feed disconnected")
		}

		if !sleepUntil(ctx, c.reconnectInterval) {
			return
		}
	}
}

// consume performs the subscribe handshake and then streams events until
// the connection drops or ctx is canceled.
func (c *Client) consume(ctx context.Context, conn net.Conn) error {
	reader := bufio.NewReader(conn)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	req := subscribeRequest{
		Cmd:      "subscribe",
		ClientID: c.clientID,
		Resync:   true,
		ReqID:    fmt.Sprintf("sub-%d", time.Now().UTC().UnixNano()),
	}
	if err := writeJSONLine(conn, req); err != nil {
		return err
	}

	line, err := reader.ReadBytes('\n')
	if err != nil {
		return err
	}
	var resp subscribeResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("bad subscribe ack: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("subscribe rejected: %s", resp.Error)
	}

	c.logger.Info().Str("addr", c.raw).Msg("feed connected")
	c.setState(StateConnected)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		ev, err := Decode(line)
		if err != nil {
			// Malformed or unknown payloads are dropped, never fatal.
			c.logger.Warn().Err(err).Msg("dropping feed event")
			continue
		}
		c.handler.HandleEvent(ev)
	}
}

// attemptState distinguishes the first connection attempt from recovery
// after a drop.
func (c *Client) attemptState() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.everConnected {
		return StateReconnecting
	}
	return StateConnecting
}

func (c *Client) setState(state ConnState) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	if state == StateConnected {
		c.everConnected = true
	}
	c.mu.Unlock()

	if c.handler != nil {
		c.handler.HandleConnState(state)
	}
}

// splitFeedAddr parses tcp:// and unix:// endpoints; a bare host:port is
// treated as tcp.
func splitFeedAddr(addr string) (network, hostport string) {
	trimmed := strings.TrimSpace(addr)
	switch {
	case strings.HasPrefix(trimmed, "unix://"):
		return "unix", strings.TrimPrefix(trimmed, "unix://")
	case strings.HasPrefix(trimmed, "tcp://"):
		return "tcp", strings.TrimPrefix(trimmed, "tcp://")
	default:
		return "tcp", trimmed
	}
}

func writeJSONLine(conn net.Conn, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}

func sleepUntil(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
