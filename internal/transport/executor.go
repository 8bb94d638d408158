// Package transport defines the command transports used to drive a device
// under test. A non-zero exit status is reported in Result.ExitCode; an
// error means the transport itself failed.
package transport

import "context"

// Executor abstracts command execution on the device for testability.
type Executor interface {
	Run(ctx context.Context, command string) (*Result, error)
	Close() error
}

// Fetcher is an Executor that can also retrieve remote files.
type Fetcher interface {
	Executor
	// Get copies remotePath into localDir under its base name and returns
	// the local path.
	Get(ctx context.Context, remotePath, localDir string) (string, error)
}
