// Package channel maintains a persistent bidirectional event connection to
// the classroom server for one guest session. The server speaks Socket.IO
// over websocket; frames are encoded and decoded by the protocol package.
package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pollherd/pollherd/protocol"
	"github.com/rs/zerolog"
)

// Handler is invoked with the decoded arguments of a named event. It is an
// alias so consumers can accept handlers without importing this package.
type Handler = func(args []protocol.RawArg)

type handlerEntry struct {
	fn   Handler
	once bool
}

// Channel is a live event connection scoped to one session's server-side
// identity. Emit is fire-and-forget; incoming events are dispatched to
// registered handlers by a single read pump goroutine.
type Channel struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	// writeMu serialises all writes on the connection (emits and pongs).
	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[string]map[uuid.UUID]handlerEntry
	closed   bool

	done chan struct{}
}

// Dial opens the event connection for a session, replaying the session's
// credential jar as a Cookie header on the websocket handshake. It performs
// the Engine.IO open exchange and sends the namespace connect packet without
// waiting for the server's acknowledgement; callers that need confirmation
// perform their own round trip.
func Dial(ctx context.Context, baseURL string, jar http.CookieJar, logger zerolog.Logger) (*Channel, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	wsURL := *target
	switch wsURL.Scheme {
	case "http":
		wsURL.Scheme = "ws"
	case "https":
		wsURL.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", wsURL.Scheme)
	}
	wsURL.Path = "/socket.io/"
	wsURL.RawQuery = "EIO=4&transport=websocket"

	header := http.Header{}
	if jar != nil {
		if cookie := cookieHeader(jar, target); cookie != "" {
			header.Set("Cookie", cookie)
		}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake rejected with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &Channel{
		conn:     conn,
		logger:   logger.With().Str("component", "channel").Logger(),
		handlers: make(map[string]map[uuid.UUID]handlerEntry),
		done:     make(chan struct{}),
	}

	// Engine.IO sends the open packet first. Consume it and reply with the
	// namespace connect before handing the connection to the read pump.
	_, frame, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read open packet: %w", err)
	}
	pkt, err := protocol.Decode(frame)
	if err != nil || pkt.Type != protocol.PacketOpen {
		conn.Close()
		return nil, fmt.Errorf("unexpected first packet: %v", err)
	}
	handshake, err := protocol.DecodeHandshake(pkt)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.logger.Debug().Str("sid", handshake.SID).Msg("event channel open")

	if err := c.write(protocol.EncodeConnect()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send namespace connect: %w", err)
	}

	go c.readPump()
	return c, nil
}

// cookieHeader flattens the jar's cookies for the target into a single
// Cookie header value.
func cookieHeader(jar http.CookieJar, target *url.URL) string {
	cookies := jar.Cookies(target)
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

// Emit fires a one-way named event. There is no delivery confirmation.
func (c *Channel) Emit(event string, args ...interface{}) error {
	frame, err := protocol.EncodeEvent(event, args...)
	if err != nil {
		return err
	}
	return c.write(frame)
}

// On registers a standing handler invoked on every occurrence of the event
// until the returned cancel function is called.
func (c *Channel) On(event string, fn Handler) (cancel func()) {
	return c.register(event, fn, false)
}

// Once registers a handler invoked on the next-and-only-next occurrence of
// the event, then removed automatically.
func (c *Channel) Once(event string, fn Handler) {
	c.register(event, fn, true)
}

// Subscription is a cancellable stream of occurrences of one event.
type Subscription struct {
	C      <-chan []protocol.RawArg
	cancel func()
}

// Cancel removes the subscription's handler. The channel is not closed;
// pending receives should select against a context or the Channel's Done.
func (s *Subscription) Cancel() { s.cancel() }

// Subscribe returns a cancellable subscription delivering each occurrence of
// the event on a buffered channel. Occurrences arriving while the buffer is
// full are dropped.
func (c *Channel) Subscribe(event string) *Subscription {
	ch := make(chan []protocol.RawArg, 8)
	cancel := c.register(event, func(args []protocol.RawArg) {
		select {
		case ch <- args:
		default:
		}
	}, false)
	return &Subscription{C: ch, cancel: cancel}
}

// Await blocks until the next occurrence of the event and returns its
// arguments. It fails if the context is cancelled or the channel closes.
func (c *Channel) Await(ctx context.Context, event string) ([]protocol.RawArg, error) {
	sub := c.Subscribe(event)
	defer sub.Cancel()

	select {
	case args := <-sub.C:
		return args, nil
	case <-c.done:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Channel) register(event string, fn Handler, once bool) (cancel func()) {
	id := uuid.New()
	c.mu.Lock()
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uuid.UUID]handlerEntry)
	}
	c.handlers[event][id] = handlerEntry{fn: fn, once: once}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers[event], id)
		c.mu.Unlock()
	}
}

func (c *Channel) write(frame []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readPump reads frames until the connection fails or is closed, answering
// keepalive pings and dispatching events to registered handlers. A panic in
// a handler is logged rather than crashing the process.
func (c *Channel) readPump() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("event handler panicked")
		}
		c.markClosed()
	}()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Debug().Err(err).Msg("event channel read failed")
			}
			return
		}

		pkt, err := protocol.Decode(frame)
		if err != nil {
			c.logger.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}

		switch pkt.Type {
		case protocol.PacketPing:
			if err := c.write(protocol.EncodePong()); err != nil {
				return
			}
		case protocol.PacketClose:
			return
		case protocol.PacketMessage:
			switch pkt.Message {
			case protocol.MessageEvent:
				c.dispatch(pkt.Event, pkt.Args)
			case protocol.MessageConnectError:
				c.logger.Warn().Bytes("body", pkt.Data).Msg("namespace connect rejected")
			}
		}
	}
}

func (c *Channel) dispatch(event string, args []protocol.RawArg) {
	c.mu.Lock()
	entries := c.handlers[event]
	fns := make([]Handler, 0, len(entries))
	for id, entry := range entries {
		fns = append(fns, entry.fn)
		if entry.once {
			delete(entries, id)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(args)
	}
}

func (c *Channel) markClosed() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()
	c.conn.Close()
}

// Done is closed once the channel has shut down.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Close tears the connection down. Safe to call more than once.
func (c *Channel) Close() error {
	c.markClosed()
	return nil
}
