package checks

import (
	"context"
	"errors"

	"github.com/yoanbernabeu/wrtprobe/internal/security"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
	"github.com/yoanbernabeu/wrtprobe/internal/wait"
)

// checkDropbearStartup waits for the host key as a readiness signal, then
// requires the listening socket. The socket check runs even when the key
// never appeared.
func checkDropbearStartup(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}
	cfg := s.Config().Dropbear

	keyCommand := "ls " + security.ShellEscape(cfg.HostKey)
	attempts, err := wait.Until(ctx, func(ctx context.Context) (bool, error) {
		result, err := run(ctx, s, sh, keyCommand)
		if err != nil {
			return false, err
		}
		return result.Success(), nil
	}, wait.Options{
		Interval: cfg.PollInterval(),
		Attempts: cfg.Attempts,
	})
	switch {
	case errors.Is(err, wait.ErrExhausted):
		s.Log().Warn().Str("host_key", cfg.HostKey).Int("attempts", attempts).Msg("host key never appeared")
	case err != nil:
		return err
	default:
		s.Log().Debug().Int("attempts", attempts).Msg("host key present")
	}
	s.Record("dropbear_key_attempts", attempts)

	if err := wait.Sleep(ctx, cfg.SettleDelay()); err != nil {
		return err
	}

	listenCommand := "netstat -tlpn | grep " + security.ShellEscape(cfg.Listen)
	result, err := run(ctx, s, sh, listenCommand)
	if err != nil {
		return err
	}
	if !result.Success() {
		return suite.Failf("dropbear is not listening on %s (host key polled %d times)%s",
			cfg.Listen, attempts, describeOutput(result))
	}
	return nil
}
