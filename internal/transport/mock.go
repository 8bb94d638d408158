package transport

import (
	"context"
	"os"
	"path/filepath"
)

// Mock is a test double that records commands and returns configured results.
type Mock struct {
	RunFunc  func(ctx context.Context, command string) (*Result, error)
	GetFunc  func(ctx context.Context, remotePath, localDir string) (string, error)
	Commands []string
	Fetched  []string
	Closed   bool
}

// Run records the command and delegates to RunFunc.
func (m *Mock) Run(ctx context.Context, command string) (*Result, error) {
	m.Commands = append(m.Commands, command)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, command)
	}
	return &Result{Stdout: []string{}, Stderr: []string{}, ExitCode: 0}, nil
}

// Get records the remote path and delegates to GetFunc. Without GetFunc
// an empty file is created at the destination.
func (m *Mock) Get(ctx context.Context, remotePath, localDir string) (string, error) {
	m.Fetched = append(m.Fetched, remotePath)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, remotePath, localDir)
	}
	local := filepath.Join(localDir, filepath.Base(remotePath))
	if err := os.WriteFile(local, nil, 0644); err != nil {
		return "", err
	}
	return local, nil
}

// Close marks the mock as closed.
func (m *Mock) Close() error {
	m.Closed = true
	return nil
}
