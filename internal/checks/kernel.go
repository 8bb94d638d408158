package checks

import (
	"context"

	"github.com/yoanbernabeu/wrtprobe/internal/klog"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
)

func checkKernelErrors(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}
	log, err := klog.Fetch(ctx, sh)
	if err != nil {
		return err
	}

	matches := klog.Scan(log, klog.Patterns)
	if len(matches) == 0 {
		return nil
	}
	for _, m := range matches {
		s.Log().Error().Str("pattern", m.Pattern).Str("line", m.Line).Msg("kernel error")
	}
	first := matches[0]
	s.Label("kernel_error", first.Pattern)
	return suite.Failf("Found kernel error: %s in %q (%d signatures matched)", first.Pattern, first.Line, len(matches))
}
