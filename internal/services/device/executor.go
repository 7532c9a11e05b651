package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

// BinaryExecutor runs the HWI command line tool.
type BinaryExecutor struct {
	Binary    string // executable name or path, "hwi" when empty
	Emulators bool   // prefix every call with --emulators
	Logger    *zap.Logger
}

var _ domain.DeviceExecutor = (*BinaryExecutor)(nil)

// Execute runs the binary with args and returns its stdout. A non-zero exit
// is reported as ErrDevice carrying the trimmed stderr.
func (e *BinaryExecutor) Execute(ctx context.Context, args ...string) ([]byte, error) {
	bin := e.Binary
	if bin == "" {
		bin = "hwi"
	}
	if e.Emulators {
		args = append([]string{"--emulators"}, args...)
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("running device command", zap.String("binary", bin), zap.Strings("args", args))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrDevice, msg)
	}
	return stdout.Bytes(), nil
}
