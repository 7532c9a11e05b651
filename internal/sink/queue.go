package sink

import (
	"context"
	"sync/atomic"

	"keeperbridge/internal/domain"
)

const defaultQueueSize = 32

// Queue hands inbound messages to a consumer over a buffered channel.
// Publish never blocks: when the buffer is full the message is dropped and
// counted.
type Queue struct {
	ch      chan domain.InboundMessage
	dropped atomic.Uint64
	onDrop  func()
}

// NewQueue returns a Queue buffering size messages. onDrop, if set, runs for
// every dropped message.
func NewQueue(size int, onDrop func()) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{ch: make(chan domain.InboundMessage, size), onDrop: onDrop}
}

// Publish implements domain.EventSink.
func (q *Queue) Publish(ctx context.Context, msg domain.InboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		q.dropped.Add(1)
		if q.onDrop != nil {
			q.onDrop()
		}
		return ErrFull
	}
}

// Messages yields published messages in order.
func (q *Queue) Messages() <-chan domain.InboundMessage { return q.ch }

// Dropped returns how many messages were lost to a full buffer.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Drain forwards queued messages to dst until ctx ends, then forwards what is
// still buffered and returns. It stops early on the first error from dst.
func (q *Queue) Drain(ctx context.Context, dst domain.EventSink) error {
	out := context.WithoutCancel(ctx)
	for {
		select {
		case msg := <-q.ch:
			if err := dst.Publish(out, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			for {
				select {
				case msg := <-q.ch:
					if err := dst.Publish(out, msg); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

var _ domain.EventSink = (*Queue)(nil)
