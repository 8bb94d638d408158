package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// buildArchive writes a tar archive with the given entries, gzipped when compress is set
func buildArchive(t *testing.T, names []string, compress bool) []byte {
	t.Helper()

	var buf bytes.Buffer
	var tw *tar.Writer
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(&buf)
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(&buf)
	}

	for _, name := range names {
		body := []byte("config dropbear\n")
		hdr := &tar.Header{Name: name, Mode: 0600, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write header: %v", err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatalf("failed to write body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar: %v", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			t.Fatalf("failed to close gzip: %v", err)
		}
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.tar.gz")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	return path
}

func TestListEntries_Gzip(t *testing.T) {
	path := writeArchive(t, buildArchive(t, []string{"etc/config/dropbear", "etc/config/network"}, true))

	names, err := ListEntries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Contains(names, "etc/config/dropbear") {
		t.Errorf("expected etc/config/dropbear in %v", names)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 entries, got %v", names)
	}
}

func TestListEntries_PlainTar(t *testing.T) {
	path := writeArchive(t, buildArchive(t, []string{"./etc/config/system"}, false))

	names, err := ListEntries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 1 || names[0] != "etc/config/system" {
		t.Errorf("expected normalised name, got %v", names)
	}
}

func TestListEntries_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty file", nil},
		{"corrupt gzip", []byte{0x1f, 0x8b, 0x00, 0x01}},
		{"not an archive", []byte(strings.Repeat("garbage", 100))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ListEntries(writeArchive(t, tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := ListEntries(filepath.Join(t.TempDir(), "missing.tar.gz")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContains(t *testing.T) {
	names := []string{"etc/config/dropbear", "etc/passwd"}

	if !Contains(names, "etc/config/dropbear") {
		t.Error("expected exact name to be found")
	}
	if !Contains(names, "./etc/passwd") {
		t.Error("expected ./ prefixed lookup to be normalised")
	}
	if Contains(names, "etc/config") {
		t.Error("expected directory prefix not to match")
	}
}

func TestCommand(t *testing.T) {
	if got := Command("/tmp/backup.tar.gz", false); got != "sysupgrade -b '/tmp/backup.tar.gz'" {
		t.Errorf("Command() = %q", got)
	}
	if got := Command("/tmp/backup.tar.gz", true); got != "sysupgrade -u -b '/tmp/backup.tar.gz'" {
		t.Errorf("Command(-u) = %q", got)
	}
}

func TestCreate(t *testing.T) {
	mock := &transport.Mock{}
	if err := Create(context.Background(), mock, "/tmp/backup.tar.gz", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Commands) != 1 || !strings.HasPrefix(mock.Commands[0], "sysupgrade -u -b") {
		t.Errorf("unexpected commands: %v", mock.Commands)
	}

	failing := &transport.Mock{
		RunFunc: func(ctx context.Context, command string) (*transport.Result, error) {
			return transport.NewResult("", "Failed to create backup", 1), nil
		},
	}
	if err := Create(context.Background(), failing, "/tmp/backup.tar.gz", false); err == nil {
		t.Error("expected error on non-zero exit")
	}

	if err := Create(context.Background(), mock, "relative.tar.gz", false); err == nil {
		t.Error("expected error for relative path")
	}
}

func TestRemove(t *testing.T) {
	mock := &transport.Mock{}
	if err := Remove(context.Background(), mock, "/tmp/backup.tar.gz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Commands[0] != "rm -rf '/tmp/backup.tar.gz'" {
		t.Errorf("unexpected command: %q", mock.Commands[0])
	}
}
