package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func deviceHandler(files map[string][]byte) commandHandler {
	return func(command string, stdout, stderr io.Writer) int {
		switch {
		case command == "true":
			return 0
		case command == "echo 'hello world'":
			fmt.Fprintln(stdout, "hello world")
			return 0
		case command == "false":
			fmt.Fprintln(stderr, "failed")
			return 1
		case strings.HasPrefix(command, "cat '"):
			path := strings.TrimSuffix(strings.TrimPrefix(command, "cat '"), "'")
			data, ok := files[path]
			if !ok {
				fmt.Fprintf(stderr, "cat: can't open '%s': No such file or directory\n", path)
				return 1
			}
			_, _ = stdout.Write(data)
			return 0
		case strings.HasPrefix(command, "rm -rf '"):
			path := strings.TrimSuffix(strings.TrimPrefix(command, "rm -rf '"), "'")
			delete(files, path)
			return 0
		case strings.HasPrefix(command, "test -f '"):
			path := strings.TrimSuffix(strings.TrimPrefix(command, "test -f '"), "' && echo 'exists'")
			if _, ok := files[path]; ok {
				fmt.Fprintln(stdout, "exists")
				return 0
			}
			return 1
		case command == "sleep":
			time.Sleep(2 * time.Second)
			return 0
		}
		fmt.Fprintf(stderr, "sh: %s: not found\n", command)
		return 127
	}
}

func TestRun_ExitCodes(t *testing.T) {
	client := newTestClient(t, deviceHandler(nil))
	ctx := context.Background()

	res, err := client.Run(ctx, "true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}

	res, err = client.Run(ctx, "echo 'hello world'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Line(0) != "hello world" {
		t.Errorf("first line = %q, want %q", res.Line(0), "hello world")
	}

	res, err = client.Run(ctx, "false")
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
	if res.ErrorOutput() != "failed" {
		t.Errorf("stderr = %q", res.ErrorOutput())
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	client := newTestClient(t, deviceHandler(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Run(ctx, "sleep")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestExecWithOutput(t *testing.T) {
	client := newTestClient(t, deviceHandler(nil))

	out, err := client.ExecWithOutput(context.Background(), "echo 'hello world'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello world" {
		t.Errorf("output = %q", out)
	}

	_, err = client.ExecWithOutput(context.Background(), "false")
	if err == nil || !strings.Contains(err.Error(), "exit 1") {
		t.Errorf("expected exit 1 error, got %v", err)
	}
}

func TestGet_BinarySafe(t *testing.T) {
	payload := []byte{0x1f, 0x8b, 0x08, 0x00, '\n', 0x00, 0xff, '\r', '\n'}
	client := newTestClient(t, deviceHandler(map[string][]byte{
		"/tmp/backup.tar.gz": payload,
	}))
	dir := t.TempDir()

	local, err := client.Get(context.Background(), "/tmp/backup.tar.gz", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != filepath.Join(dir, "backup.tar.gz") {
		t.Errorf("local path = %q", local)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("downloaded %v, want %v", data, payload)
	}
}

func TestGet_Missing(t *testing.T) {
	client := newTestClient(t, deviceHandler(map[string][]byte{}))
	dir := t.TempDir()

	_, err := client.Get(context.Background(), "/tmp/missing.tar.gz", dir)
	if err == nil {
		t.Fatal("expected error for missing remote file")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing.tar.gz")); !os.IsNotExist(statErr) {
		t.Error("expected partial local file to be removed")
	}
}

func TestGet_RejectsRelativePath(t *testing.T) {
	client := NewClient("host", "root", 22, "")
	if _, err := client.Get(context.Background(), "backup.tar.gz", t.TempDir()); err == nil {
		t.Error("expected error for relative remote path")
	}
}

func TestExitStatus(t *testing.T) {
	code, err := exitStatus(nil)
	if code != 0 || err != nil {
		t.Errorf("exitStatus(nil) = %d, %v", code, err)
	}

	code, err = exitStatus(&ssh.ExitMissingError{})
	if code != -1 || err != nil {
		t.Errorf("exitStatus(ExitMissingError) = %d, %v", code, err)
	}

	other := errors.New("connection lost")
	if _, err := exitStatus(other); !errors.Is(err, other) {
		t.Errorf("expected transport error to be returned, got %v", err)
	}
}
