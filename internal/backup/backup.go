// Package backup drives sysupgrade configuration backups on the device and
// inspects the resulting archives.
package backup

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yoanbernabeu/wrtprobe/internal/security"
	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// Command returns the sysupgrade invocation that writes a backup to path.
// With excludeUnchanged, sysupgrade -u skips config files identical to
// their ROM defaults.
func Command(path string, excludeUnchanged bool) string {
	if excludeUnchanged {
		return "sysupgrade -u -b " + security.ShellEscape(path)
	}
	return "sysupgrade -b " + security.ShellEscape(path)
}

// Create writes a configuration backup archive to path on the device
func Create(ctx context.Context, exec transport.Executor, path string, excludeUnchanged bool) error {
	if err := security.ValidateRemotePath(path); err != nil {
		return err
	}
	result, err := exec.Run(ctx, Command(path, excludeUnchanged))
	if err != nil {
		return fmt.Errorf("sysupgrade backup: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("sysupgrade backup failed (exit %d): %s", result.ExitCode, result.ErrorOutput())
	}
	return nil
}

// Remove deletes the backup archive from the device
func Remove(ctx context.Context, exec transport.Executor, path string) error {
	if err := security.ValidateRemotePath(path); err != nil {
		return err
	}
	result, err := exec.Run(ctx, "rm -rf "+security.ShellEscape(path))
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	if !result.Success() {
		return fmt.Errorf("remove %s failed (exit %d): %s", path, result.ExitCode, result.ErrorOutput())
	}
	return nil
}

// ListEntries returns the entry names of a tar archive, transparently
// decompressing gzip. Leading "./" and "/" are stripped so names read like
// "etc/config/dropbear".
func ListEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	return listEntries(f)
}

func listEntries(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if len(magic) == 0 {
		return nil, fmt.Errorf("archive is empty")
	}

	var src io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	tr := tar.NewReader(src)
	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}
		names = append(names, normalizeName(hdr.Name))
	}
	return names, nil
}

func normalizeName(name string) string {
	name = strings.TrimPrefix(name, "./")
	return strings.TrimPrefix(name, "/")
}

// Contains reports whether entry is among names
func Contains(names []string, entry string) bool {
	entry = normalizeName(entry)
	for _, name := range names {
		if name == entry {
			return true
		}
	}
	return false
}
