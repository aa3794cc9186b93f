package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coreward/coinglass-connector/pkg/logging"
)

// DefaultURL is the Coinglass streaming endpoint.
const DefaultURL = "wss://open-ws.coinglass.com/ws-api"

const (
	defaultHeartbeatInterval    = 20 * time.Second
	defaultReconnectInterval    = 5 * time.Second
	defaultMaxReconnectAttempts = 5

	handshakeTimeout  = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

// Status describes where the client sits in its connection lifecycle.
// Transitions are driven exclusively by the client itself:
// Disconnected -> Connecting -> Connected -> Authenticated, with unexpected
// closures dropping back to Disconnected before a reconnect re-enters
// Connecting.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Config holds streaming client configuration. Zero values fall back to the
// package defaults.
type Config struct {
	// URL of the streaming endpoint. Defaults to DefaultURL.
	URL string

	// APIKey is sent in the auth handshake right after the socket opens.
	APIKey string

	// HeartbeatInterval is the period between keepalive pings while
	// connected. Defaults to 20s.
	HeartbeatInterval time.Duration

	// ReconnectInterval is the base backoff delay. Attempt n waits
	// ReconnectInterval * 2^(n-1). Defaults to 5s.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds consecutive failed reconnects before the
	// client gives up and requires an explicit Connect. Defaults to 5.
	MaxReconnectAttempts int

	// Logger receives all client events. Defaults to logging.NewLogger().
	Logger logging.Logger
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = defaultReconnectInterval
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if c.Logger == nil {
		c.Logger = logging.NewLogger()
	}
	return c
}

// Client is the Coinglass streaming client. It owns the connection state
// machine, the auth handshake, the subscription registry replayed across
// reconnects, the heartbeat loop and the reconnect supervisor.
//
// Subscribe and Unsubscribe never fail through the data path: misuse and
// transport problems are logged, and subscription state is kept locally so it
// can be replayed once a connection is available.
type Client struct {
	cfg    Config
	logger logging.Logger

	// dial is swappable in tests.
	dial func(ctx context.Context) (*websocket.Conn, error)

	// connectMu serializes Connect and Disconnect so concurrent calls cannot
	// race to open two sockets.
	connectMu sync.Mutex

	// mu guards every field below.
	mu         sync.Mutex
	conn       *websocket.Conn
	status     Status
	running    bool
	attempts   int // consecutive failed reconnects, reset on successful open
	subs       *registry
	closing    chan struct{} // closed by Disconnect, aborts backoff sleeps
	readerDone chan struct{} // closed when the current read loop exits

	// writeMu serializes writes to the underlying socket.
	writeMu sync.Mutex
}

// NewClient creates a streaming client. The client does not connect until
// Connect is called.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:    cfg,
		logger: cfg.Logger,
		subs:   newRegistry(),
	}
	c.dial = func(ctx context.Context) (*websocket.Conn, error) {
		dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
		conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
		return conn, err
	}
	return c
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsRunning reports whether the client is supervising a connection. It turns
// false on Disconnect and when the reconnect budget is exhausted.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Connect opens the socket and starts the auth handshake, read loop and
// heartbeat. Calling it while the client is already running logs a warning
// and returns nil. The context bounds the dial only; the connection itself
// outlives it and is torn down by Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Warn("streaming client is already running")
		return nil
	}
	c.running = true
	c.attempts = 0
	c.closing = make(chan struct{})
	c.status = StatusConnecting
	c.mu.Unlock()

	c.logger.Info("connecting", logging.String("url", c.cfg.URL))

	if err := c.open(ctx); err != nil {
		c.mu.Lock()
		c.running = false
		c.status = StatusDisconnected
		c.mu.Unlock()
		return fmt.Errorf("websocket connect: %w", err)
	}
	return nil
}

// Disconnect stops the client: no reconnect will be attempted and no
// heartbeat will fire after it returns. It waits up to a bounded timeout for
// the read loop to stop; a timeout is logged, not fatal. Calling it while not
// running logs a warning and returns.
func (c *Client) Disconnect() {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		c.logger.Warn("streaming client is not running")
		return
	}
	// Flip running before touching the socket so the close handler does not
	// schedule a reconnect.
	c.running = false
	close(c.closing)
	conn := c.conn
	done := c.readerDone
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"))
		_ = conn.Close()
	}

	if done != nil {
		select {
		case <-done:
		case <-time.After(disconnectTimeout):
			c.logger.Warn("timed out waiting for read loop to stop")
		}
	}

	c.mu.Lock()
	c.conn = nil
	c.status = StatusDisconnected
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("websocket disconnected")
}

// Subscribe registers handler for channel and records the desired params.
// Only parameters not already registered are sent on the wire, bundled in a
// single subscribe frame; if the client is not authenticated yet, wire
// transmission is deferred to the post-auth replay. Idempotent: repeating a
// subscription sends nothing new.
func (c *Client) Subscribe(channel string, params []string, handler DataHandler) {
	if channel == "" || len(params) == 0 {
		c.logger.Error("subscribe requires a channel and at least one parameter")
		return
	}

	c.mu.Lock()
	if handler != nil && c.subs.addHandler(channel, handler) {
		c.logger.Debug("handler registered", logging.String("channel", channel))
	}
	delta := c.subs.addParams(channel, params)
	ready := c.status == StatusAuthenticated
	c.mu.Unlock()

	if len(delta) == 0 {
		c.logger.Debug("already subscribed",
			logging.String("channel", channel),
			logging.Strings("params", params))
		return
	}
	if !ready {
		c.logger.Warn("not authenticated yet, subscription deferred until after the auth handshake",
			logging.String("channel", channel),
			logging.Strings("params", delta))
		return
	}

	if err := c.send(newSubscribeMessage(channelArgs(channel, delta))); err != nil {
		c.logger.Error("failed to send subscribe frame",
			logging.String("channel", channel), logging.Error(err))
		return
	}
	c.logger.Info("subscribed",
		logging.String("channel", channel),
		logging.Strings("params", delta))
}

// Unsubscribe removes the intersection of params with the channel's
// registered set and, when connected and authenticated, tells the server.
// If handler is non-nil only that handler is removed; with a nil handler all
// handlers are removed, but only once the channel has no parameters left, so
// unsubscribing one parameter does not strand streams still wanted by the
// others.
func (c *Client) Unsubscribe(channel string, params []string, handler DataHandler) {
	c.mu.Lock()
	removed, remaining, known := c.subs.removeParams(channel, params)
	if !known {
		c.mu.Unlock()
		c.logger.Warn("not subscribed to channel", logging.String("channel", channel))
		return
	}
	if len(removed) == 0 {
		c.mu.Unlock()
		c.logger.Warn("no matching subscriptions for channel",
			logging.String("channel", channel),
			logging.Strings("params", params))
		return
	}
	if handler != nil {
		if !c.subs.removeHandler(channel, handler) {
			c.logger.Warn("handler not found for channel", logging.String("channel", channel))
		}
	} else if remaining == 0 {
		c.subs.clearHandlers(channel)
	}
	ready := c.status == StatusAuthenticated
	c.mu.Unlock()

	if !ready {
		c.logger.Warn("not authenticated, unsubscribe recorded locally only",
			logging.String("channel", channel),
			logging.Strings("params", removed))
		return
	}

	if err := c.send(newUnsubscribeMessage(channelArgs(channel, removed))); err != nil {
		c.logger.Error("failed to send unsubscribe frame",
			logging.String("channel", channel), logging.Error(err))
		return
	}
	c.logger.Info("unsubscribed",
		logging.String("channel", channel),
		logging.Strings("params", removed))
}

// open dials the endpoint and, on success, commits the new connection: sends
// the auth frame and starts the read loop and heartbeat. The commit is
// aborted if Disconnect ran while the dial was in flight.
func (c *Client) open(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("client closed during dial")
	}
	c.conn = conn
	c.status = StatusConnected
	c.attempts = 0
	done := make(chan struct{})
	c.readerDone = done
	c.mu.Unlock()

	c.logger.Info("websocket connected")

	if err := c.send(newAuthMessage(c.cfg.APIKey)); err != nil {
		c.logger.Error("failed to send auth frame", logging.Error(err))
	}

	go c.readLoop(conn, done)
	go c.heartbeat(done)

	return nil
}

// readLoop pumps frames off the socket until it errors, then runs the close
// path. It is the only goroutine that reads the connection.
func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		_ = conn.Close()
		close(done)
		c.onClose()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("websocket read error", logging.Error(err))
			}
			return
		}
		c.handleFrame(raw)
	}
}

// onClose is the single close path: it downgrades status and, when the close
// was not requested via Disconnect, hands control to the reconnect
// supervisor.
func (c *Client) onClose() {
	c.mu.Lock()
	c.status = StatusDisconnected
	c.conn = nil
	running := c.running
	c.mu.Unlock()

	if running {
		c.logger.Warn("connection closed unexpectedly, starting reconnect supervisor")
		go c.superviseReconnect()
	} else {
		c.logger.Debug("connection closed")
	}
}

// superviseReconnect owns the backoff/re-open cycle after an unexpected
// close. It runs on its own goroutine so the backoff sleep never blocks
// callers or the (defunct) read loop, and it re-enters open rather than
// recursing through close callbacks.
func (c *Client) superviseReconnect() {
	for {
		c.mu.Lock()
		if !c.running {
			c.mu.Unlock()
			return
		}
		if c.attempts >= c.cfg.MaxReconnectAttempts {
			c.running = false
			c.status = StatusDisconnected
			c.mu.Unlock()
			c.logger.Error("max reconnect attempts reached, giving up",
				logging.Int("attempts", c.cfg.MaxReconnectAttempts))
			return
		}
		c.attempts++
		attempt := c.attempts
		closing := c.closing
		stale := c.conn
		c.mu.Unlock()

		delay := c.cfg.ReconnectInterval * (1 << (attempt - 1))
		c.logger.Info("scheduling reconnect",
			logging.Int("attempt", attempt),
			logging.Int("max", c.cfg.MaxReconnectAttempts),
			logging.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-closing:
			c.logger.Debug("reconnect aborted, client closing")
			return
		}

		c.mu.Lock()
		if !c.running {
			c.mu.Unlock()
			c.logger.Debug("reconnect aborted, client no longer running")
			return
		}
		c.status = StatusConnecting
		c.mu.Unlock()

		if stale != nil {
			_ = stale.Close()
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout*2)
		err := c.open(ctx)
		cancel()
		if err == nil {
			c.logger.Info("reconnected", logging.Int("attempt", attempt))
			return
		}
		c.logger.Warn("reconnect attempt failed",
			logging.Int("attempt", attempt), logging.Error(err))
	}
}

// heartbeat sends a ping frame every HeartbeatInterval while the connection
// is up. A send failure ends the loop; detecting the dead connection is the
// read loop's job.
func (c *Client) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			ok := c.running && c.status >= StatusConnected
			c.mu.Unlock()
			if !ok {
				return
			}
			if err := c.send(newPingMessage()); err != nil {
				c.logger.Error("heartbeat send failed", logging.Error(err))
				return
			}
			c.logger.Debug("ping sent")
		case <-done:
			return
		}
	}
}

// handleFrame decodes one server frame and routes it. Nothing in here
// propagates an error to the caller: malformed or unrecognized frames are
// logged and dropped.
func (c *Client) handleFrame(raw []byte) {
	msg, err := decodeInbound(raw)
	if err != nil {
		c.logger.Warn("dropping malformed frame", logging.Error(err))
		return
	}

	switch msg.kind() {
	case kindPong:
		c.logger.Debug("pong received")
	case kindAuthResult:
		c.handleAuthResult(msg)
	case kindChannelData:
		c.dispatch(msg.Channel, msg.Data)
	case kindServerError:
		c.logger.Error("server error", logging.String("message", msg.Message))
	default:
		c.logger.Warn("dropping unrecognized frame", logging.String("frame", string(raw)))
	}
}

// handleAuthResult finishes the handshake. On success the subscription
// registry is replayed; on failure the client stays Connected but not
// Authenticated, and auth is not retried within this connection.
func (c *Client) handleAuthResult(msg *inbound) {
	if !msg.authSuccess() {
		c.logger.Error("authentication failed", logging.String("message", msg.Message))
		return
	}

	c.mu.Lock()
	c.status = StatusAuthenticated
	frames := c.subs.replayFrames()
	c.mu.Unlock()

	c.logger.Info("authenticated")

	for _, frame := range frames {
		if err := c.send(frame); err != nil {
			c.logger.Error("failed to replay subscription",
				logging.Strings("args", frame.Args), logging.Error(err))
			continue
		}
		c.logger.Info("subscription replayed", logging.Strings("args", frame.Args))
	}
}

// dispatch routes a channel payload to every handler registered for the
// channel, in registration order. A panicking handler is recovered and
// logged so the remaining handlers and future messages are unaffected.
func (c *Client) dispatch(channel string, data json.RawMessage) {
	c.mu.Lock()
	handlers := c.subs.handlersFor(channel)
	c.mu.Unlock()

	if len(handlers) == 0 {
		c.logger.Debug("no handler registered for channel", logging.String("channel", channel))
		return
	}
	for _, h := range handlers {
		c.invoke(channel, h, data)
	}
}

func (c *Client) invoke(channel string, h DataHandler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic recovered",
				logging.String("channel", channel),
				logging.String("panic", fmt.Sprintf("%v", r)))
		}
	}()
	h(data)
}

// send marshals msg and writes it as a text frame. Writes are serialized;
// sending while disconnected is reported as an error for the caller to log.
func (c *Client) send(msg any) error {
	c.mu.Lock()
	conn := c.conn
	connected := conn != nil && c.status >= StatusConnected
	c.mu.Unlock()

	if !connected {
		return fmt.Errorf("websocket is not connected")
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
