package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

const (
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
	hubSendBuffer       = 64
)

// HubOptions tunes a Hub. Zero values fall back to the Socket.IO defaults.
type HubOptions struct {
	Logger       *zap.Logger
	PingInterval time.Duration
	PingTimeout  time.Duration
}

// Hub is a minimal in-memory room relay speaking the same Socket.IO dialect
// as the public relay. It is used for local development and tests.
//
// JOIN_CHANNEL {room} adds the socket to room. CHANNEL_MESSAGE {room, data,
// network} is forwarded to every other socket in room as
// CHANNEL_MESSAGE {requestData: data, network}. The hub never inspects data.
type Hub struct {
	opts     HubOptions
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu    sync.RWMutex
	rooms map[domain.RoomID]map[*hubConn]struct{}
}

// NewHub returns an empty Hub.
func NewHub(opts HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = defaultPingTimeout
	}
	return &Hub{
		opts:     opts,
		log:      opts.Logger.Named("hub"),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		rooms:    make(map[domain.RoomID]map[*hubConn]struct{}),
	}
}

// Members returns how many sockets are currently in room.
func (h *Hub) Members(room domain.RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ServeHTTP upgrades Engine.IO websocket requests. Polling is not offered.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("transport"); t != "websocket" {
		http.Error(w, "websocket transport required", http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("EIO"); v != "4" {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	c := &hubConn{
		hub:   h,
		ws:    ws,
		sid:   "s" + strconv.FormatUint(h.nextID.Add(1), 10),
		out:   make(chan []byte, hubSendBuffer),
		quit:  make(chan struct{}),
		rooms: make(map[domain.RoomID]struct{}),
	}
	c.log = h.log.With(zap.String("sid", c.sid), zap.String("remote", r.RemoteAddr))
	// The open packet must be the first frame, ahead of any ping.
	if err := c.open(); err != nil {
		c.log.Warn("handshake failed", zap.Error(err))
		_ = ws.Close()
		return
	}
	go c.writeLoop()
	c.serve()
}

func (h *Hub) join(c *hubConn, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.rooms == nil {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*hubConn]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveAll(c *hubConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	c.rooms = nil
}

// forward sends frame to every member of room except from. It returns the
// number of recipients.
func (h *Hub) forward(from *hubConn, room domain.RoomID, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for member := range h.rooms[room] {
		if member == from {
			continue
		}
		if member.send(frame) {
			n++
		}
	}
	return n
}

type hubConn struct {
	hub  *Hub
	ws   *websocket.Conn
	sid  string
	log  *zap.Logger
	out  chan []byte
	quit chan struct{}
	once sync.Once

	// rooms is only touched under hub.mu.
	rooms map[domain.RoomID]struct{}
}

// relayed is the payload the hub delivers to room members.
type relayed struct {
	RequestData json.RawMessage `json:"requestData"`
	Network     json.RawMessage `json:"network"`
}

// send queues frame without blocking; slow sockets lose frames.
func (c *hubConn) send(frame []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.out <- frame:
		return true
	default:
		c.log.Warn("dropping frame for slow socket")
		return false
	}
}

func (c *hubConn) stop() {
	c.once.Do(func() {
		close(c.quit)
		c.hub.leaveAll(c)
	})
}

func (c *hubConn) writeLoop() {
	ping := time.NewTicker(c.hub.opts.PingInterval)
	defer ping.Stop()
	defer c.ws.Close()
	for {
		select {
		case <-c.quit:
			return
		case <-ping.C:
			if err := c.write(controlFrame(eioPing)); err != nil {
				c.stop()
				return
			}
		case frame := <-c.out:
			if err := c.write(frame); err != nil {
				c.stop()
				return
			}
		}
	}
}

func (c *hubConn) write(frame []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

func (c *hubConn) deadline() time.Time {
	return time.Now().Add(c.hub.opts.PingInterval + c.hub.opts.PingTimeout)
}

func (c *hubConn) open() error {
	open, err := json.Marshal(openPacket{
		SID:          c.sid,
		Upgrades:     []string{},
		PingInterval: int(c.hub.opts.PingInterval / time.Millisecond),
		PingTimeout:  int(c.hub.opts.PingTimeout / time.Millisecond),
		MaxPayload:   1_000_000,
	})
	if err != nil {
		return err
	}
	return c.write(append([]byte{eioOpen}, open...))
}

func (c *hubConn) serve() {
	defer c.stop()

	_ = c.ws.SetReadDeadline(c.deadline())
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.log.Debug("socket closed", zap.Error(err))
			return
		}
		_ = c.ws.SetReadDeadline(c.deadline())
		if mt != websocket.TextMessage {
			continue
		}
		p, err := parsePacket(data)
		if err != nil {
			continue
		}
		switch p.eio {
		case eioPong:
		case eioPing:
			c.send(controlFrame(eioPong))
		case eioClose:
			return
		case eioMessage:
			if !c.handle(p) {
				return
			}
		}
	}
}

func (c *hubConn) handle(p packet) bool {
	switch p.sio {
	case sioConnect:
		ack, _ := json.Marshal(map[string]string{"sid": c.sid})
		c.send(append(controlFrame(eioMessage, sioConnect), ack...))
	case sioDisconnect:
		return false
	case sioEvent:
		if err := c.event(p.data); err != nil {
			c.log.Warn("bad event", zap.Error(err))
		}
	}
	return true
}

func (c *hubConn) event(data []byte) error {
	name, args, err := decodeEvent(data)
	if err != nil {
		return err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(args, &list); err != nil || len(list) == 0 {
		return fmt.Errorf("%s: missing payload", name)
	}

	switch name {
	case domain.EventJoinChannel:
		var req domain.JoinRequest
		if err := json.Unmarshal(list[0], &req); err != nil || req.Room.IsZero() {
			return fmt.Errorf("%s: missing room", name)
		}
		c.hub.join(c, req.Room)
		c.log.Info("joined room", zap.String("room", req.Room.String()))
	case domain.EventChannelMessage:
		var in struct {
			Room    domain.RoomID   `json:"room"`
			Data    json.RawMessage `json:"data"`
			Network json.RawMessage `json:"network"`
		}
		if err := json.Unmarshal(list[0], &in); err != nil || in.Room.IsZero() {
			return fmt.Errorf("%s: missing room", name)
		}
		out := relayed{RequestData: in.Data, Network: in.Network}
		if len(out.Network) == 0 {
			out.Network = json.RawMessage("null")
		}
		if len(out.RequestData) == 0 {
			out.RequestData = json.RawMessage("null")
		}
		frame, err := encodeEvent(domain.EventChannelMessage, out)
		if err != nil {
			return err
		}
		n := c.hub.forward(c, in.Room, frame)
		c.log.Debug("forwarded message", zap.String("room", in.Room.String()), zap.Int("recipients", n))
	default:
		c.log.Debug("ignoring event", zap.String("event", name))
	}
	return nil
}
