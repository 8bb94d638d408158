package checks

import (
	"context"
	"strconv"
	"time"

	"github.com/yoanbernabeu/wrtprobe/internal/backup"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
)

// cleanupTimeout bounds removal of the remote archive, which runs even
// after the check's own context has expired
const cleanupTimeout = 30 * time.Second

// sysupgradeBackup creates a backup on the device, fetches it and checks
// whether the config entry is present. With excludeUnchanged the entry must
// be absent, since a freshly flashed device has stock dropbear config.
func sysupgradeBackup(excludeUnchanged bool) suite.Func {
	return func(ctx context.Context, s *suite.State) error {
		remote, err := s.SSH(ctx)
		if err != nil {
			return err
		}
		cfg := s.Config().Backup

		// A failed sysupgrade can still leave a partial archive in /tmp
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
			defer cancel()
			if rmErr := backup.Remove(cleanupCtx, remote, cfg.Path); rmErr != nil {
				s.Log().Warn().Err(rmErr).Str("path", cfg.Path).Msg("failed to remove backup from device")
			}
		}()

		if err := backup.Create(ctx, remote, cfg.Path, excludeUnchanged); err != nil {
			return err
		}

		local, err := remote.Get(ctx, cfg.Path, s.WorkDir())
		if err != nil {
			return err
		}

		names, err := backup.ListEntries(local)
		if err != nil {
			return suite.Failf("%s is not a readable archive: %v", cfg.Path, err)
		}
		s.Label("backup_entries", strconv.Itoa(len(names)))

		found := backup.Contains(names, cfg.ConfigEntry)
		switch {
		case excludeUnchanged && found:
			return suite.Failf("%s contains %s, want it left out as unchanged", cfg.Path, cfg.ConfigEntry)
		case !excludeUnchanged && !found:
			return suite.Failf("%s does not contain %s (%d entries)", cfg.Path, cfg.ConfigEntry, len(names))
		}
		return nil
	}
}
