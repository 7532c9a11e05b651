// Package sink holds domain.EventSink implementations: the local hand-off
// of decrypted {data, network} messages to whatever presents them.
package sink

import "errors"

// ErrFull is returned by Queue.Publish when its buffer is full.
var ErrFull = errors.New("sink full")
