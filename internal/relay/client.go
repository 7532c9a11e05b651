package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

const (
	defaultSendQueue = 64
	inboundBuffer    = 32
	writeWait        = 5 * time.Second
	// Used when the server's open packet carries no ping timings.
	fallbackLiveness = 60 * time.Second
)

var (
	errClosed         = errors.New("connection closed")
	errSendQueueFull  = errors.New("send queue full")
	errServerClosed   = errors.New("relay closed the connection")
	errConnectRefused = errors.New("relay refused namespace connect")
)

// Config configures a Dialer.
type Config struct {
	URL       string      // relay base URL, e.g. https://relay.example.com
	SendQueue int         // outbound frames buffered per connection
	Header    http.Header // optional handshake headers
	Logger    *zap.Logger
}

// Dialer opens Socket.IO connections to the relay.
type Dialer struct {
	cfg Config
	ws  *websocket.Dialer
	log *zap.Logger
}

// NewDialer returns a Dialer for cfg.
func NewDialer(cfg Config) *Dialer {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = defaultSendQueue
	}
	return &Dialer{
		cfg: cfg,
		ws:  &websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: 45 * time.Second},
		log: log.Named("relay"),
	}
}

var _ domain.RelayDialer = (*Dialer)(nil)

type dialResult struct {
	client *Client
	err    error
}

// Dial connects and completes the Socket.IO handshake within timeout.
//
// The handshake runs on its own goroutine. When timeout expires first, Dial
// returns domain.ErrConnectionTimeout at once and the goroutine closes any
// connection it manages to establish afterwards.
func (d *Dialer) Dial(ctx context.Context, timeout time.Duration) (domain.RelayTransport, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	results := make(chan dialResult, 1)
	go func() {
		c, err := d.connect(attemptCtx)
		results <- dialResult{client: c, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	abandon := func() {
		cancel()
		go func() {
			if r := <-results; r.client != nil {
				d.log.Debug("closing connection from abandoned attempt")
				_ = r.client.Close()
			}
		}()
	}

	select {
	case r := <-results:
		cancel()
		if r.err != nil {
			return nil, r.err
		}
		d.log.Info("channel connected", zap.String("sid", r.client.open.SID))
		return r.client, nil
	case <-expired:
		abandon()
		d.log.Warn("relay connect timed out", zap.Duration("timeout", timeout))
		return nil, domain.ErrConnectionTimeout
	case <-ctx.Done():
		abandon()
		return nil, domain.WrapError(domain.KindTransport, "relay connect", ctx.Err())
	}
}

func (d *Dialer) connect(ctx context.Context) (*Client, error) {
	u, err := websocketURL(d.cfg.URL)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransport, "relay url", err)
	}
	conn, _, err := d.ws.DialContext(ctx, u, d.cfg.Header)
	if err != nil {
		return nil, domain.WrapError(domain.KindTransport, "relay dial", err)
	}
	// Reads below have no deadline of their own; cancelling ctx unblocks them.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	open, err := handshake(conn)
	if !stop() {
		_ = conn.Close()
		return nil, domain.WrapError(domain.KindTransport, "relay handshake", ctx.Err())
	}
	if err != nil {
		_ = conn.Close()
		return nil, domain.WrapError(domain.KindTransport, "relay handshake", err)
	}
	return newClient(conn, open, d.cfg.SendQueue, d.log), nil
}

// handshake reads the Engine.IO open packet and joins the default namespace.
func handshake(conn *websocket.Conn) (openPacket, error) {
	var open openPacket
	p, err := readPacket(conn)
	if err != nil {
		return open, err
	}
	if p.eio != eioOpen {
		return open, fmt.Errorf("expected open packet, got %q", p.eio)
	}
	if err := json.Unmarshal(p.data, &open); err != nil {
		return open, fmt.Errorf("open packet: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, controlFrame(eioMessage, sioConnect)); err != nil {
		return open, err
	}
	for {
		p, err := readPacket(conn)
		if err != nil {
			return open, err
		}
		switch {
		case p.eio == eioPing:
			if err := conn.WriteMessage(websocket.TextMessage, controlFrame(eioPong)); err != nil {
				return open, err
			}
		case p.eio == eioMessage && p.sio == sioConnect:
			return open, nil
		case p.eio == eioMessage && p.sio == sioConnectError:
			return open, fmt.Errorf("%w: %s", errConnectRefused, p.data)
		case p.eio == eioClose:
			return open, errServerClosed
		}
	}
}

func readPacket(conn *websocket.Conn) (packet, error) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return packet{}, err
		}
		if mt == websocket.TextMessage {
			return parsePacket(data)
		}
	}
}

// Client is one live relay connection. It implements domain.RelayTransport.
//
// A single writer goroutine drains the send queue, so frames emitted by one
// caller leave in order. A single reader goroutine answers pings and hands
// CHANNEL_MESSAGE arguments to Inbound.
type Client struct {
	conn *websocket.Conn
	open openPacket
	log  *zap.Logger

	sendq   chan []byte
	ctrlq   chan []byte
	inbound chan json.RawMessage

	closing    chan struct{}
	done       chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	mu       sync.Mutex
	err      error
	closeErr error
}

func newClient(conn *websocket.Conn, open openPacket, queue int, log *zap.Logger) *Client {
	c := &Client{
		conn:       conn,
		open:       open,
		log:        log.With(zap.String("sid", open.SID)),
		sendq:      make(chan []byte, queue),
		ctrlq:      make(chan []byte, 4),
		inbound:    make(chan json.RawMessage, inboundBuffer),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	c.wg.Add(2)
	go c.writeLoop()
	go c.readLoop()
	go func() {
		c.wg.Wait()
		close(c.done)
	}()
	return c
}

var _ domain.RelayTransport = (*Client)(nil)

// Emit queues a 42["event",payload] frame.
func (c *Client) Emit(event string, payload any) error {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		return domain.WrapError(domain.KindTransport, "encode "+event, err)
	}
	select {
	case <-c.closing:
		return domain.WrapError(domain.KindTransport, "emit "+event, errClosed)
	default:
	}
	select {
	case c.sendq <- frame:
		return nil
	case <-c.closing:
		return domain.WrapError(domain.KindTransport, "emit "+event, errClosed)
	default:
		return domain.WrapError(domain.KindTransport, "emit "+event, errSendQueueFull)
	}
}

// Inbound yields CHANNEL_MESSAGE argument arrays. It is never closed; select
// on Done as well.
func (c *Client) Inbound() <-chan json.RawMessage { return c.inbound }

// Done is closed once both connection goroutines have exited.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended. It is nil after an explicit Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close sends a best-effort disconnect packet, closes the socket and waits
// for the connection goroutines. Later calls return the first result.
func (c *Client) Close() error {
	c.terminate(nil)
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// terminate stops both loops exactly once. cause is nil for explicit closes.
func (c *Client) terminate(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = cause
		c.mu.Unlock()

		close(c.closing)
		// Let the writer flush the disconnect packet before the socket goes.
		select {
		case <-c.writerDone:
		case <-time.After(writeWait):
		}
		if err := c.conn.Close(); err != nil && cause == nil {
			c.mu.Lock()
			c.closeErr = domain.WrapError(domain.KindTransport, "relay close", err)
			c.mu.Unlock()
		}
		if cause != nil {
			c.log.Warn("channel connection lost", zap.Error(cause))
		} else {
			c.log.Info("channel disconnected")
		}
	})
}

func (c *Client) write(frame []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) writeLoop() {
	defer c.wg.Done()
	defer close(c.writerDone)
	for {
		// Control frames (pongs) go first so keepalive survives a busy queue.
		select {
		case frame := <-c.ctrlq:
			if err := c.write(frame); err != nil {
				go c.terminate(err)
				return
			}
			continue
		default:
		}
		select {
		case <-c.closing:
			c.flush()
			_ = c.write(controlFrame(eioMessage, sioDisconnect))
			return
		case frame := <-c.ctrlq:
			if err := c.write(frame); err != nil {
				go c.terminate(err)
				return
			}
		case frame := <-c.sendq:
			if err := c.write(frame); err != nil {
				go c.terminate(err)
				return
			}
		}
	}
}

// flush writes frames still queued when Close was called.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.sendq:
			if err := c.write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) liveness() time.Duration {
	if c.open.PingInterval <= 0 {
		return fallbackLiveness
	}
	return time.Duration(c.open.PingInterval+c.open.PingTimeout) * time.Millisecond
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	_ = c.conn.SetReadDeadline(time.Now().Add(c.liveness()))
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
			default:
				c.terminate(err)
			}
			return
		}
		if mt == websocket.BinaryMessage {
			c.log.Warn("received unexpected bytes", zap.Int("len", len(data)))
			continue
		}
		p, err := parsePacket(data)
		if err != nil {
			c.log.Warn("received unparseable frame", zap.Error(err))
			continue
		}
		if !c.handle(p) {
			return
		}
	}
}

// handle processes one packet and reports whether reading should continue.
func (c *Client) handle(p packet) bool {
	switch p.eio {
	case eioPing:
		_ = c.conn.SetReadDeadline(time.Now().Add(c.liveness()))
		select {
		case c.ctrlq <- controlFrame(eioPong):
		default:
		}
	case eioClose:
		c.terminate(errServerClosed)
		return false
	case eioMessage:
		return c.handleSocket(p)
	case eioNoop:
	default:
		c.log.Debug("ignoring engine packet", zap.String("type", string(p.eio)))
	}
	return true
}

func (c *Client) handleSocket(p packet) bool {
	switch p.sio {
	case sioEvent:
		name, args, err := decodeEvent(p.data)
		if err != nil {
			c.log.Warn("received unexpected string", zap.ByteString("payload", p.data))
			return true
		}
		if name != domain.EventChannelMessage {
			c.log.Info("channel received event", zap.String("event", name))
			return true
		}
		c.log.Debug("channel received message", zap.Int("bytes", len(args)))
		select {
		case c.inbound <- args:
		case <-c.closing:
			return false
		}
	case sioBinaryEvent, sioBinaryAck:
		c.log.Warn("received unexpected binary event")
	case sioDisconnect:
		c.terminate(errServerClosed)
		return false
	case sioConnectError:
		c.terminate(fmt.Errorf("%w: %s", errConnectRefused, p.data))
		return false
	}
	return true
}
