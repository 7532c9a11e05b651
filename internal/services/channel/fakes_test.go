package channel_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"keeperbridge/internal/domain"
)

type emitted struct {
	event   string
	payload any
}

type fakeTransport struct {
	inbound chan json.RawMessage
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	frames []emitted
	closed int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan json.RawMessage, 8), done: make(chan struct{})}
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, emitted{event: event, payload: payload})
	return nil
}

func (f *fakeTransport) Inbound() <-chan json.RawMessage { return f.inbound }
func (f *fakeTransport) Done() <-chan struct{} { return f.done }
func (f *fakeTransport) Err() error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	f.drop()
	return nil
}

// drop ends the connection as if the relay went away.
func (f *fakeTransport) drop() { f.once.Do(func() { close(f.done) }) }

func (f *fakeTransport) sent() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.frames...)
}

type fakeDialer struct {
	mu         sync.Mutex
	err        error
	transports []*fakeTransport
	calls      int
	// hold, if set, runs before the n-th dial (1-based) completes.
	hold func(n int)
}

func (d *fakeDialer) Dial(context.Context, time.Duration) (domain.RelayTransport, error) {
	d.mu.Lock()
	d.calls++
	n, hold := d.calls, d.hold
	d.mu.Unlock()
	if hold != nil {
		hold(n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	t := newFakeTransport()
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transports[len(d.transports)-1]
}

func (d *fakeDialer) all() []*fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeTransport(nil), d.transports...)
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
