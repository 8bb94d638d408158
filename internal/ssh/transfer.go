package ssh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yoanbernabeu/wrtprobe/internal/security"
)

// Get downloads remotePath into localDir under its base name and returns the
// local path. The file is streamed with cat because OpenWrt images ship
// without an sftp-server.
func (c *Client) Get(ctx context.Context, remotePath, localDir string) (string, error) {
	if err := security.ValidateRemotePath(remotePath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(localDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create local directory: %w", err)
	}
	localPath := filepath.Join(localDir, filepath.Base(remotePath))

	session, err := c.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}

	var stderr strings.Builder
	session.Stdout = f
	session.Stderr = &stderr

	runErr := runSession(ctx, session, "cat "+security.ShellEscape(remotePath))
	closeErr := f.Close()

	if ctx.Err() != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to read remote file: %w", ctx.Err())
	}
	exitCode, err := exitStatus(runErr)
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to read remote file: %w", err)
	}
	if exitCode != 0 {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to read remote file %s (exit %d): %s",
			remotePath, exitCode, strings.TrimSpace(stderr.String()))
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to write local file: %w", closeErr)
	}

	return localPath, nil
}
