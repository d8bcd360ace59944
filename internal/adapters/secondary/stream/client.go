package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

const (
	// Time allowed to write a control message to the peer.
	writeWait = 10 * time.Second

	// Send pings to the peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum inbound frame size. Change events are small.
	maxMessageSize = 4096
)

// Config holds the stream client's connection settings.
type Config struct {
	// BaseURL is the upstream server root, e.g. "https://api.example.com".
	// The scheme is rewritten to ws/wss for the dial.
	BaseURL string

	// Token is the bearer token attached to the handshake. Empty means no
	// Authorization header.
	Token string

	// ReconnectDelay is the fixed wait before a reconnect attempt after a
	// transport failure. No backoff, no jitter, no retry cap.
	ReconnectDelay time.Duration

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
}

// Client owns one push connection to a scoped event endpoint. The lifecycle
// is Idle -> Connecting -> Open; a transport error moves it to Reconnecting
// with a single pending retry timer, and Disconnect (the only exit from the
// retry loop) moves it to Closed.
//
// Every transition runs under one mutex. The generation counter invalidates
// in-flight dials and read loops that belong to a superseded connection, so
// a slow goroutine from before a Disconnect or reconnect can never clobber
// the current state.
type Client struct {
	cfg     Config
	dialer  *websocket.Dialer
	handler ports.EventHandler
	logger  *slog.Logger

	mu    sync.Mutex
	state domain.ConnectionState
	scope domain.Scope
	conn  *websocket.Conn
	retry *time.Timer
	gen   uint64
}

var _ ports.EventStream = (*Client)(nil)

// NewClient creates a stream client that delivers decoded events to handler.
// The handler is called inline from the read loop, one frame at a time.
func NewClient(cfg Config, handler ports.EventHandler, logger *slog.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		handler: handler,
		logger:  logger.With("component", "event_stream"),
	}
}

// Connect establishes the push connection for the scope. Safe to call
// repeatedly: while a connection or dial for the same scope is live it is a
// no-op. Connect does not block; the dial happens asynchronously.
func (c *Client) Connect(scope domain.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scope == scope {
		switch c.state {
		case domain.StateConnecting, domain.StateOpen, domain.StateReconnecting:
			return
		}
	}

	c.cancelRetryLocked()
	c.closeConnLocked()
	c.scope = scope
	c.startDialLocked()
}

// Disconnect tears the connection down and cancels any pending retry. Safe
// to call repeatedly and from any state.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRetryLocked()
	c.closeConnLocked()
	c.gen++ // orphan any in-flight dial
	if c.state != domain.StateClosed {
		c.state = domain.StateClosed
		c.logger.Info("stream closed", "scope", c.scope.String())
	}
}

// State returns the connection's current lifecycle state.
func (c *Client) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// startDialLocked moves to Connecting and kicks off an asynchronous dial for
// a fresh generation. Caller holds c.mu.
func (c *Client) startDialLocked() {
	c.state = domain.StateConnecting
	c.gen++
	gen := c.gen
	scope := c.scope
	go c.dial(gen, scope)
}

func (c *Client) dial(gen uint64, scope domain.Scope) {
	url := websocketURL(c.cfg.BaseURL) + scope.EventPath()

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, resp, err := c.dialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}

	c.mu.Lock()
	if gen != c.gen {
		// Superseded by a Disconnect or scope change while dialing.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		c.logger.Warn("stream dial failed", "url", url, "error", err)
		c.scheduleRetryLocked()
		c.mu.Unlock()
		return
	}

	conn.SetReadLimit(maxMessageSize)
	c.conn = conn
	c.state = domain.StateOpen
	c.mu.Unlock()

	c.logger.Info("stream open", "scope", scope.String())
	go c.readLoop(conn, gen)
	go c.pingLoop(conn, gen)
}

// readLoop delivers inbound frames to the handler in arrival order. It runs
// as the connection's single reader, so no two frames are ever in flight at
// once.
func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.transportError(gen, err)
			return
		}

		var event domain.ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// One corrupt frame must never take down a healthy connection.
			c.logger.Warn("discarding malformed frame", "error", err)
			continue
		}

		c.handler(event)
	}
}

// pingLoop keeps the connection's liveness visible to intermediaries. A
// failed ping surfaces as a read error and goes through the normal retry
// path, so no separate error handling is needed here.
func (c *Client) pingLoop(conn *websocket.Conn, gen uint64) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		stale := gen != c.gen
		c.mu.Unlock()
		if stale {
			return
		}

		deadline := time.Now().Add(writeWait)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}

// transportError handles a connection drop: close the dead connection and
// schedule exactly one retry. Errors from superseded generations are
// ignored; the state they belonged to no longer exists.
func (c *Client) transportError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state == domain.StateClosed {
		return
	}

	if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn("stream transport error", "scope", c.scope.String(), "error", err)
	}

	c.closeConnLocked()
	c.scheduleRetryLocked()
}

// scheduleRetryLocked arms the single retry timer. Any previously pending
// timer is cancelled first, so at most one can ever be armed. Caller holds
// c.mu.
func (c *Client) scheduleRetryLocked() {
	c.cancelRetryLocked()
	c.state = domain.StateReconnecting
	gen := c.gen

	c.retry = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen || c.state != domain.StateReconnecting {
			return
		}
		c.retry = nil
		c.startDialLocked()
	})

	c.logger.Info("stream reconnect scheduled",
		"scope", c.scope.String(),
		"delay", c.cfg.ReconnectDelay.String(),
	)
}

func (c *Client) cancelRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Client) closeConnLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// websocketURL rewrites an http(s) base URL to its ws(s) equivalent.
func websocketURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
