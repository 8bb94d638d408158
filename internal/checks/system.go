package checks

import (
	"context"

	"github.com/yoanbernabeu/wrtprobe/internal/suite"
	"github.com/yoanbernabeu/wrtprobe/internal/sysinfo"
	"github.com/yoanbernabeu/wrtprobe/internal/ubus"
)

func checkUbusSystemBoard(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}

	reply, err := ubus.Call(ctx, sh, "system", "board", map[string]any{})
	if err != nil {
		return err
	}

	want := s.Config().Expect.Distribution
	if got, _ := ubus.LookupString(reply, "release.distribution"); got != want {
		return suite.Failf("release.distribution is %q, want %q", got, want)
	}

	board, err := ubus.DecodeBoard(reply)
	if err != nil {
		return err
	}

	s.Record("board_name", board.BoardName)
	s.Record("kernel", board.Kernel)
	s.Record("revision", board.Release.Revision)
	s.Record("rootfs_type", board.RootfsType)
	s.Record("target", board.Release.Target)
	s.Record("version", board.Release.Version)

	s.Label("board_name", board.BoardName)
	s.Label("kernel", board.Kernel)
	s.Label("revision", board.Release.Revision)
	s.Label("target", board.Release.Target)
	s.Label("version", board.Release.Version)
	return nil
}

func checkFreeMemory(ctx context.Context, s *suite.State) error {
	sh, err := shell(ctx, s)
	if err != nil {
		return err
	}
	result, err := run(ctx, s, sh, sysinfo.MemoryCommand)
	if err != nil {
		return err
	}

	used, err := sysinfo.ParseUsedMemory(result.Stdout)
	if err != nil {
		return suite.Failf("%v", err)
	}

	s.Record("used_memory", used)

	threshold := s.Config().Memory.Threshold()
	if used <= threshold {
		return suite.Failf("used memory is %d MB, want more than %d MB", used, threshold)
	}
	s.Log().Debug().Int("used_mb", used).Int("threshold_mb", threshold).Msg("memory usage")
	return nil
}
