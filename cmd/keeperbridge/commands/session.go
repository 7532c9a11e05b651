package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

// emitter is the part of the channel a session needs.
type emitter interface {
	Emit(event string, payload any, skipEncryption bool, network domain.Network) error
}

// runSession forwards stdin lines as encrypted CHANNEL_MESSAGE frames until
// ctx ends or in is exhausted. Inbound traffic reaches stdout through the
// sink installed by the root command.
func runSession(ctx context.Context, ch emitter, in io.Reader, network domain.Network, log *zap.Logger) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if err := sendLine(ch, line, network); err != nil {
				var de *domain.Error
				if errors.As(err, &de) && de.Kind != domain.KindTransport {
					return err
				}
				log.Warn("message not sent", zap.Error(err))
			}
		}
	}
}

func sendLine(ch emitter, line []byte, network domain.Network) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	if !json.Valid(line) {
		return fmt.Errorf("input is not JSON: %.40q", line)
	}
	return ch.Emit(domain.EventChannelMessage, json.RawMessage(line), false, network)
}
