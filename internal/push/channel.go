package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/netscope/netscope/internal/metrics"
)

// Message types that mean the master has new data.
const (
	TypeSnapshotUpdate  = "snapshot_update"
	TypeInitialSnapshot = "initial_snapshot"
)

// ReasonConnect is the refresh reason emitted right after the channel opens.
const ReasonConnect = "connect"

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 25 * time.Second
	defaultPongWait         = 60 * time.Second
	writeWait               = 5 * time.Second
	maxMessageSize          = 64 * 1024
)

// ErrClosed is returned by Run once the channel has been closed.
var ErrClosed = errors.New("push channel closed")

// Listener receives channel lifecycle events. Callbacks run on the channel's
// goroutine, one at a time, and must not call Close.
type Listener interface {
	// Connected fires when the channel opens.
	Connected()
	// Disconnected fires when an open channel closes for any reason other
	// than teardown.
	Disconnected(err error)
	// RefreshNeeded fires once on open and once per recognized message.
	RefreshNeeded(reason string)
}

// Options tune reconnection and liveness. Zero values use defaults.
type Options struct {
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	Jitter           float64 // fraction of the delay, e.g. 0.2 for +/-20%; negative disables
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongWait         time.Duration
	Header           http.Header

	// StableAfter is how long a connection must stay open before the
	// backoff resets. Zero uses MaxDelay.
	StableAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	if o.StableAfter <= 0 {
		o.StableAfter = o.MaxDelay
	}
	if o.Jitter == 0 {
		o.Jitter = DefaultJitter
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	return o
}

// Channel owns one persistent WebSocket connection to the master and keeps
// it open, reconnecting with exponential backoff after unexpected closure.
type Channel struct {
	url      string
	listener Listener
	opts     Options
	logger   zerolog.Logger
	dialer   websocket.Dialer
	rnd      func() float64

	mu        sync.Mutex
	connected bool
	running   bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a channel for url. Nothing is dialed until Run or Start.
func New(url string, listener Listener, opts Options, logger zerolog.Logger) *Channel {
	opts = opts.withDefaults()
	return &Channel{
		url:      url,
		listener: listener,
		opts:     opts,
		logger:   logger.With().Str("component", "push").Logger(),
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
	}
}

// Start runs the reconnect loop in a background goroutine.
func (c *Channel) Start(ctx context.Context) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	go func() { _ = c.loop(ctx) }()
	return nil
}

// Run blocks in the reconnect loop until ctx is cancelled or Close is called.
func (c *Channel) Run(ctx context.Context) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	return c.loop(ctx)
}

// Close stops the loop, closes the connection and waits until no further
// listener callback can fire. It is safe to call more than once and before
// Start.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Connected reports whether the connection is currently open.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Channel) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.running {
		return nil, fmt.Errorf("push channel already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	return ctx, nil
}

func (c *Channel) loop(ctx context.Context) error {
	c.mu.Lock()
	done, cancel := c.done, c.cancel
	c.mu.Unlock()
	defer close(done)
	defer cancel()

	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		uptime, err := c.connectAndHandle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempt = nextAttempt(attempt, uptime, c.opts.StableAfter)

		delay := withJitter(calculateBackoff(attempt, c.opts.BaseDelay, c.opts.MaxDelay), c.opts.Jitter, c.opts.MaxDelay, c.rnd)
		metrics.PushReconnectsTotal.Inc()
		if attempt >= 3 {
			c.logger.Warn().Err(err).
				Int("attempt", attempt).
				Dur("retry_in", delay).
				Msg("Push channel unavailable, polling continues")
		} else {
			c.logger.Info().Err(err).
				Dur("retry_in", delay).
				Msg("Push channel interrupted, reconnecting")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// connectAndHandle dials once and pumps messages until the connection ends.
// uptime is how long the connection stayed open, zero when the dial failed.
func (c *Channel) connectAndHandle(ctx context.Context) (uptime time.Duration, err error) {
	c.logger.Debug().Str("url", c.url).Msg("Connecting to push channel")

	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.opts.Header)
	if err != nil {
		if resp != nil {
			return 0, fmt.Errorf("dial push channel: status %d: %w", resp.StatusCode, err)
		}
		return 0, fmt.Errorf("dial push channel: %w", err)
	}
	openedAt := time.Now()

	connCtx, connCancel := context.WithCancel(ctx)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		c.writePump(connCtx, conn)
	}()

	c.setConnected(true)
	c.logger.Info().Str("url", c.url).Msg("Push channel connected")
	c.emit(ctx, func() { c.listener.Connected() })
	c.emit(ctx, func() { c.listener.RefreshNeeded(ReasonConnect) })

	err = c.readPump(ctx, conn)

	connCancel()
	<-pumpDone
	c.setConnected(false)

	if ctx.Err() == nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Info().Err(err).Msg("Push channel closed by master")
		} else {
			c.logger.Warn().Err(err).Msg("Push channel error")
		}
		c.emit(ctx, func() { c.listener.Disconnected(err) })
	}
	// Never zero for an accepted connection.
	return max(time.Since(openedAt), time.Nanosecond), err
}

func (c *Channel) readPump(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		c.handleMessage(ctx, data)
	}
}

// writePump owns the connection's outbound side: keepalive pings and the
// close frame on teardown. It always closes the socket on exit so a blocked
// reader returns.
func (c *Channel) writePump(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug().Err(err).Msg("Push channel ping failed")
				return
			}
		}
	}
}

type envelope struct {
	Type string `json:"type"`
}

func (c *Channel) handleMessage(ctx context.Context, data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.PushMessagesTotal.WithLabelValues("malformed").Inc()
		c.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Ignoring malformed push message")
		return
	}

	switch msg.Type {
	case TypeSnapshotUpdate, TypeInitialSnapshot:
		metrics.PushMessagesTotal.WithLabelValues("refresh").Inc()
		c.emit(ctx, func() { c.listener.RefreshNeeded(msg.Type) })
	default:
		metrics.PushMessagesTotal.WithLabelValues("ignored").Inc()
		c.logger.Debug().Str("type", msg.Type).Msg("Ignoring push message type")
	}
}

func (c *Channel) emit(ctx context.Context, fn func()) {
	if ctx.Err() != nil || c.listener == nil {
		return
	}
	fn()
}

func (c *Channel) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
	if v {
		metrics.PushConnected.Set(1)
	} else {
		metrics.PushConnected.Set(0)
	}
}
