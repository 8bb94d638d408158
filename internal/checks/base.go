package checks

import (
	"context"
	"strings"

	"github.com/yoanbernabeu/wrtprobe/internal/suite"
	"github.com/yoanbernabeu/wrtprobe/internal/sysinfo"
)

const echoText = "hello world"

func checkShell(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}
	_, err = requireSuccess(ctx, s, sh, "true")
	return err
}

func checkEcho(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}
	result, err := requireSuccess(ctx, s, sh, "echo '"+echoText+"'")
	if err != nil {
		return err
	}
	if got := strings.TrimSpace(result.Line(0)); got != echoText {
		return suite.Failf("echo returned %q, want %q", got, echoText)
	}
	return nil
}

func checkUname(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}
	result, err := run(ctx, s, sh, sysinfo.UnameCommand)
	if err != nil {
		return err
	}
	family := s.Config().Expect.KernelFamily
	line := result.Line(0)
	if !sysinfo.IsKernelFamily(line, family) {
		return suite.Failf("%s output %q does not contain %q", sysinfo.UnameCommand, line, family)
	}
	s.Record("uname", line)
	return nil
}

func checkSSH(ctx context.Context, s *suite.State) error {
	remote, err := s.SSH(ctx)
	if err != nil {
		return err
	}
	_, err = requireSuccess(ctx, s, remote, "true")
	return err
}
