// Package checks holds the firmware checks run against a device. Each check
// registers itself with the suite registry from init.
package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/yoanbernabeu/wrtprobe/internal/security"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// run executes command and returns its result. Transport errors are
// returned as-is so the check ends as ERROR.
func run(ctx context.Context, s *suite.State, exec transport.Executor, command string) (*transport.Result, error) {
	s.Log().Debug().Str("command", security.SanitizeCommandForLog(command)).Msg("running")
	result, err := exec.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	s.Log().Debug().Int("exit", result.ExitCode).Int("lines", len(result.Stdout)).Msg("finished")
	return result, nil
}

// requireSuccess runs command and fails the check on a non-zero exit
func requireSuccess(ctx context.Context, s *suite.State, exec transport.Executor, command string) (*transport.Result, error) {
	result, err := run(ctx, s, exec, command)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return result, suite.Failf("%s exited %d%s", command, result.ExitCode, describeOutput(result))
	}
	return result, nil
}

// describeOutput renders captured output for a failure message
func describeOutput(result *transport.Result) string {
	var b strings.Builder
	if out := strings.TrimSpace(result.Output()); out != "" {
		fmt.Fprintf(&b, "\nstdout: %s", out)
	}
	if errOut := strings.TrimSpace(result.ErrorOutput()); errOut != "" {
		fmt.Fprintf(&b, "\nstderr: %s", errOut)
	}
	return b.String()
}

func shell(ctx context.Context, s *suite.State) (transport.Executor, error) {
	return s.Shell(ctx)
}
