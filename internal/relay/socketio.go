package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Engine.IO v4 packet types.
const (
	eioOpen    byte = '0'
	eioClose   byte = '1'
	eioPing    byte = '2'
	eioPong    byte = '3'
	eioMessage byte = '4'
	eioUpgrade byte = '5'
	eioNoop    byte = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message.
const (
	sioConnect      byte = '0'
	sioDisconnect   byte = '1'
	sioEvent        byte = '2'
	sioAck          byte = '3'
	sioConnectError byte = '4'
	sioBinaryEvent  byte = '5'
	sioBinaryAck    byte = '6'
)

const socketPath = "/socket.io/"

var (
	errEmptyPacket = errors.New("empty packet")
	errBadEvent    = errors.New("malformed event packet")
)

// openPacket is the Engine.IO handshake sent by the server.
type openPacket struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload,omitempty"`
}

// packet is one decoded text frame. sio is zero unless eio is eioMessage.
type packet struct {
	eio  byte
	sio  byte
	data []byte
}

// parsePacket splits a text frame into its Engine.IO and Socket.IO parts.
// Namespaces and ack ids are skipped; only the default namespace is used.
func parsePacket(frame []byte) (packet, error) {
	if len(frame) == 0 {
		return packet{}, errEmptyPacket
	}
	p := packet{eio: frame[0], data: frame[1:]}
	if p.eio != eioMessage {
		return p, nil
	}
	if len(p.data) == 0 {
		return packet{}, fmt.Errorf("message without socket packet type")
	}
	p.sio = p.data[0]
	rest := p.data[1:]
	if p.sio == sioBinaryEvent || p.sio == sioBinaryAck {
		// "<attachments>-" precedes the namespace for binary packets.
		if i := strings.IndexByte(string(rest), '-'); i >= 0 {
			rest = rest[i+1:]
		}
	}
	if len(rest) > 0 && rest[0] == '/' {
		if i := strings.IndexByte(string(rest), ','); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = nil
		}
	}
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	p.data = rest
	return p, nil
}

// encodeEvent builds a 42["event",args...] frame.
func encodeEvent(event string, args ...any) ([]byte, error) {
	list := make([]any, 0, len(args)+1)
	list = append(list, event)
	list = append(list, args...)
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(b)+2)
	out = append(out, eioMessage, sioEvent)
	return append(out, b...), nil
}

// decodeEvent splits an event payload into its name and the JSON array of
// the remaining arguments.
func decodeEvent(data []byte) (string, json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return "", nil, fmt.Errorf("%w: %v", errBadEvent, err)
	}
	if len(list) == 0 {
		return "", nil, errBadEvent
	}
	var name string
	if err := json.Unmarshal(list[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name: %v", errBadEvent, err)
	}
	args, err := json.Marshal(list[1:])
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

func controlFrame(eio byte, sio ...byte) []byte {
	return append([]byte{eio}, sio...)
}

// websocketURL turns a relay base URL into its Engine.IO websocket endpoint.
func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported relay scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = socketPath
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
