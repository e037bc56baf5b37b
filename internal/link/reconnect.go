package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/google/shlex"
)

const DefaultReconnectTimeout = 15 * time.Second

// CommandReconnector asks the host network stack to reassociate by running
// an external command such as "wpa_cli -i wlan0 reconnect".
type CommandReconnector struct {
	argv    []string
	timeout time.Duration
	logger  *slog.Logger
}

func NewCommandReconnector(command string, timeout time.Duration, logger *slog.Logger) (*CommandReconnector, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse reconnect command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("reconnect command is empty")
	}
	if timeout <= 0 {
		timeout = DefaultReconnectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandReconnector{argv: argv, timeout: timeout, logger: logger}, nil
}

// Reconnect runs the command and reports whether it exited zero.
func (r *CommandReconnector) Reconnect(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...).CombinedOutput()
	if err != nil {
		r.logger.Warn("reconnect command failed",
			"command", r.argv[0],
			"error", err,
			"output", string(out),
		)
		return false
	}
	r.logger.Debug("reconnect command ok", "command", r.argv[0])
	return true
}
