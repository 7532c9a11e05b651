package commands

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

type recordingEmitter struct {
	payloads []string
	networks []domain.Network
	err      error
}

func (r *recordingEmitter) Emit(event string, payload any, skip bool, network domain.Network) error {
	if r.err != nil {
		return r.err
	}
	raw, _ := json.Marshal(payload)
	r.payloads = append(r.payloads, string(raw))
	r.networks = append(r.networks, network)
	return nil
}

func TestRunSession_ForwardsJSONLines(t *testing.T) {
	in := strings.NewReader("{\"amount\":1}\n\n  not json\n[1,2]\r\n")
	rec := &recordingEmitter{}

	err := runSession(context.Background(), rec, in, "bitcoin", zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, []string{`{"amount":1}`, `[1,2]`}, rec.payloads)
	require.Equal(t, []domain.Network{"bitcoin", "bitcoin"}, rec.networks)
}

func TestRunSession_StopsOnChannelPrecondition(t *testing.T) {
	rec := &recordingEmitter{err: domain.ErrNoRoom}
	err := runSession(context.Background(), rec, strings.NewReader("1\n2\n"), "", zap.NewNop())
	require.ErrorIs(t, err, domain.ErrNoRoom)
}

func TestRunSession_ContinuesOnTransportError(t *testing.T) {
	rec := &recordingEmitter{err: domain.WrapError(domain.KindTransport, "emit", nil)}
	err := runSession(context.Background(), rec, strings.NewReader("1\n2\n"), "", zap.NewNop())
	require.NoError(t, err)
}

func TestRunSession_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	require.NoError(t, runSession(ctx, &recordingEmitter{}, r, "", zap.NewNop()))
}
