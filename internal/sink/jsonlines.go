package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"keeperbridge/internal/domain"
)

// JSONLines writes each message as one JSON object per line.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Publish implements domain.EventSink.
func (j *JSONLines) Publish(ctx context.Context, msg domain.InboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.Data) == 0 {
		msg.Data = json.RawMessage("null")
	}
	if len(msg.Network) == 0 {
		msg.Network = json.RawMessage("null")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

var _ domain.EventSink = (*JSONLines)(nil)
