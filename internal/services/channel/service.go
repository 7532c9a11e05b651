package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
	"keeperbridge/internal/metrics"
	"keeperbridge/internal/protocol/envelope"
	"keeperbridge/internal/protocol/seal"
)

const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultBackoff        = 2 * time.Second
	maxBackoff            = 30 * time.Second
)

var (
	// ErrProcessMessage is the only error inbound processing reports.
	ErrProcessMessage = errors.New("failed to process message")
	// ErrDecryptMessage is an ErrProcessMessage raised by a failed decrypt.
	// It carries no cipher detail.
	ErrDecryptMessage = fmt.Errorf("%w: failed to decrypt message from channel", ErrProcessMessage)
)

// Options configures a Service.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Sink receives every processed inbound message. Nil discards them.
	Sink domain.EventSink

	ConnectTimeout   time.Duration
	Reconnect        bool
	ReconnectBackoff time.Duration
}

// Service is the encrypted relay channel.
//
// The key, room and transport form one unit of state guarded by mu. The lock
// is only held around field access, never across a dial, an emit or a close.
// Connect and Disconnect are serialized by lifecycle so concurrent callers
// cannot race two dials.
type Service struct {
	dialer  domain.RelayDialer
	opts    Options
	log     *zap.Logger
	metrics *metrics.Metrics

	lifecycle sync.Mutex

	mu        sync.Mutex
	key       domain.SecretKey
	room      domain.RoomID
	transport domain.RelayTransport
	// stop ends dispatch and reconnect supervision for the current session.
	stop context.CancelFunc
}

// New returns a disconnected Service with no key and no room.
func New(dialer domain.RelayDialer, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = DefaultBackoff
	}
	return &Service{
		dialer:  dialer,
		opts:    opts,
		log:     log.Named("channel"),
		metrics: opts.Metrics,
	}
}

var _ domain.ChannelService = (*Service)(nil)

// Connect dials the relay. It is a no-op while connected. A fresh connection
// starts a fresh session: any previous key and room are dropped.
func (s *Service) Connect(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.transport != nil {
		s.mu.Unlock()
		return nil
	}
	// End a lost session's reconnect loop. It re-checks its context under mu
	// before installing a transport.
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.key, s.room = "", ""
	s.mu.Unlock()

	s.log.Info("connecting to relay")
	t, err := s.dial(ctx)
	if err != nil {
		return err
	}

	sessionCtx, stop := context.WithCancel(context.Background())
	s.mu.Lock()
	old := s.transport
	s.transport = t
	s.stop = stop
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	s.metrics.SetConnected(true)

	go s.dispatch(sessionCtx, t)
	return nil
}

func (s *Service) dial(ctx context.Context) (domain.RelayTransport, error) {
	t, err := s.dialer.Dial(ctx, s.opts.ConnectTimeout)
	switch {
	case err == nil:
		s.metrics.ConnectAttempt("ok")
	case errors.Is(err, domain.ErrConnectionTimeout):
		s.metrics.ConnectAttempt("timeout")
	default:
		s.metrics.ConnectAttempt("error")
	}
	return t, err
}

// Disconnect closes the live connection. Without one it does nothing.
func (s *Service) Disconnect() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	t, stop := s.transport, s.stop
	s.transport, s.stop = nil, nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if t == nil {
		return nil
	}
	s.metrics.SetConnected(false)
	if err := t.Close(); err != nil {
		return domain.WrapError(domain.KindTransport, "disconnect", err)
	}
	return nil
}

// Close disconnects and only logs a failure. It always returns nil so it can
// be deferred as the channel's teardown.
func (s *Service) Close() error {
	if err := s.Disconnect(); err != nil {
		s.log.Warn("failed to close relay connection", zap.Error(err))
	}
	return nil
}

// Connected reports whether a relay connection is live.
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// Secret returns the active key, empty before pairing.
func (s *Service) Secret() domain.SecretKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Room returns the active room, empty before pairing.
func (s *Service) Room() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// GenerateKey draws a new pairing key, makes it active together with its
// room and joins that room on the relay. The key is returned for display to
// the peer. It fails with domain.ErrNoClient, leaving state untouched, when
// not connected.
func (s *Service) GenerateKey() (domain.SecretKey, error) {
	key, err := crypto.GenerateSecretKey()
	if err != nil {
		return "", domain.WrapError(domain.KindEncryption, "generate key", err)
	}
	if err := s.adopt(key); err != nil {
		return "", err
	}
	return key, nil
}

// UseKey makes a key received from the peer active and joins its room.
func (s *Service) UseKey(key domain.SecretKey) error {
	parsed, err := crypto.ParseSecretKey(key.String())
	if err != nil {
		return err
	}
	return s.adopt(parsed)
}

func (s *Service) adopt(key domain.SecretKey) error {
	room := crypto.RoomID(key)

	s.mu.Lock()
	t := s.transport
	if t == nil {
		s.mu.Unlock()
		return domain.ErrNoClient
	}
	s.key, s.room = key, room
	s.mu.Unlock()

	if err := t.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: room}); err != nil {
		return err
	}
	s.metrics.FrameEmitted(domain.EventJoinChannel, false)
	s.log.Info("joined channel", zap.String("room", room.String()))
	return nil
}

// Emit frames payload for the active room and queues it on the transport.
// Unless skipEncryption is set the payload is sealed with the active key. A
// skipped payload is sent as its JSON text inside a JSON string. An empty
// network is left out of the frame.
func (s *Service) Emit(event string, payload any, skipEncryption bool, network domain.Network) error {
	s.mu.Lock()
	key, room, t := s.key, s.room, s.transport
	s.mu.Unlock()

	if room.IsZero() {
		return domain.ErrNoRoom
	}
	if t == nil {
		return domain.ErrNoClient
	}

	data, err := frameData(key, payload, skipEncryption)
	if err != nil {
		return err
	}
	frame := domain.Frame{Room: room, Data: data, Network: network}
	if err := t.Emit(event, frame); err != nil {
		return err
	}
	s.metrics.FrameEmitted(event, !skipEncryption)
	s.log.Debug("emitted frame", zap.String("event", event), zap.Bool("encrypted", !skipEncryption))
	return nil
}

func frameData(key domain.SecretKey, payload any, skipEncryption bool) (json.RawMessage, error) {
	if skipEncryption {
		text, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.WrapError(domain.KindEncryption, "serialize payload", err)
		}
		return json.Marshal(string(text))
	}
	if key.IsZero() {
		return nil, domain.ErrNoEncryptionKey
	}
	env, err := seal.EncryptWithKey(key, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// ProcessInbound turns the argument array of an inbound CHANNEL_MESSAGE into
// {data, network}. Sealed requestData is decrypted with the active key; any
// other value passes through unchanged. Every failure is reported as
// ErrProcessMessage.
func (s *Service) ProcessInbound(message json.RawMessage) (domain.InboundMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(message, &args); err != nil || len(args) == 0 {
		return domain.InboundMessage{}, ErrProcessMessage
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &fields); err != nil {
		return domain.InboundMessage{}, ErrProcessMessage
	}
	data, okData := fields["requestData"]
	network, okNetwork := fields["network"]
	if !okData || !okNetwork {
		return domain.InboundMessage{}, ErrProcessMessage
	}
	if len(network) == 0 {
		network = json.RawMessage("null")
	}

	if !envelope.IsSealed(data) {
		return domain.InboundMessage{Data: data, Network: network}, nil
	}

	env, err := envelope.Parse(data)
	if err != nil {
		return domain.InboundMessage{}, ErrDecryptMessage
	}
	key := s.Secret()
	plain, err := seal.DecryptWithKey(key, env)
	if err != nil {
		return domain.InboundMessage{}, ErrDecryptMessage
	}
	return domain.InboundMessage{Data: plain, Network: network}, nil
}

// dispatch feeds inbound messages to the sink until ctx ends or t dies.
func (s *Service) dispatch(ctx context.Context, t domain.RelayTransport) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-t.Inbound():
			s.deliver(ctx, raw)
		case <-t.Done():
			s.lost(ctx, t)
			return
		}
	}
}

func (s *Service) deliver(ctx context.Context, raw json.RawMessage) {
	msg, err := s.ProcessInbound(raw)
	if err != nil {
		s.metrics.Inbound(false)
		s.log.Warn("failed to process message")
		return
	}
	s.metrics.Inbound(true)
	if s.opts.Sink == nil {
		return
	}
	if err := s.opts.Sink.Publish(ctx, msg); err != nil {
		s.log.Warn("sink rejected message", zap.Error(err))
	}
}

// lost handles a transport that ended without Disconnect.
func (s *Service) lost(ctx context.Context, t domain.RelayTransport) {
	s.mu.Lock()
	if s.transport != t {
		s.mu.Unlock()
		return
	}
	s.transport = nil
	s.mu.Unlock()
	s.metrics.SetConnected(false)
	s.log.Warn("relay connection lost", zap.Error(t.Err()))
	_ = t.Close()

	if s.opts.Reconnect {
		go s.reconnect(ctx)
	}
}

// reconnect redials with exponential backoff and rejoins the active room.
// The key and room carry over; Disconnect cancels ctx and ends the loop.
func (s *Service) reconnect(ctx context.Context) {
	backoff := s.opts.ReconnectBackoff
	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		t, err := s.dial(ctx)
		if err != nil {
			s.log.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		s.mu.Lock()
		if ctx.Err() != nil || s.transport != nil {
			s.mu.Unlock()
			_ = t.Close()
			return
		}
		s.transport = t
		room := s.room
		s.mu.Unlock()
		s.metrics.SetConnected(true)

		if !room.IsZero() {
			if err := t.Emit(domain.EventJoinChannel, domain.JoinRequest{Room: room}); err != nil {
				s.log.Warn("rejoin failed", zap.Error(err))
			}
		}
		s.log.Info("reconnected to relay", zap.Int("attempt", attempt))
		go s.dispatch(ctx, t)
		return
	}
}
