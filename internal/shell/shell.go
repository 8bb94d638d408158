// Package shell provides the local shell transport: commands for the device
// are run through a configured argv prefix (for example "sh -c" on the
// device console host, or "docker exec -i openwrt sh -c" for a container).
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// Default values for the shell transport.
const (
	DefaultTimeout   = 2 * time.Minute
	DefaultMaxOutput = 4 << 20 // 4 MB, logread on a busy device can be large
)

// DefaultPrefix is used when no prefix is configured.
var DefaultPrefix = []string{"sh", "-c"}

// Shell runs commands locally through an argv prefix. The command string is
// appended as the last argument.
type Shell struct {
	Prefix    []string
	Timeout   time.Duration
	MaxOutput int // bytes
}

// New creates a Shell with the given prefix and default limits
func New(prefix []string) *Shell {
	if len(prefix) == 0 {
		prefix = DefaultPrefix
	}
	return &Shell{
		Prefix:    append([]string(nil), prefix...),
		Timeout:   DefaultTimeout,
		MaxOutput: DefaultMaxOutput,
	}
}

// Run executes command through the prefix and returns its output.
func (s *Shell) Run(ctx context.Context, command string) (*transport.Result, error) {
	if len(s.Prefix) == 0 {
		return nil, fmt.Errorf("empty shell prefix")
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := s.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := append(append([]string(nil), s.Prefix...), command)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %q: %w", command, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Prefix binary not found or other exec error.
			return nil, fmt.Errorf("executing %s: %w", argv[0], runErr)
		}
	}

	return transport.NewResult(stdout.String(), stderr.String(), exitCode), nil
}

// Close is a no-op; every command runs in its own process.
func (s *Shell) Close() error {
	return nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Report all bytes as consumed to avoid short write errors.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
