package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/yoanbernabeu/wrtprobe/internal/config"
	"github.com/yoanbernabeu/wrtprobe/internal/results"
	"github.com/yoanbernabeu/wrtprobe/internal/shell"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input string
		count int
		want  int
	}{
		{"1\n", 3, 0},
		{" 3 \n", 3, 2},
		{"0\n", 3, -1},
		{"\n", 3, -1},
		{"4\n", 3, -1},
		{"-1\n", 3, -1},
		{"abc\n", 3, -1},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			if got := parseSelection(tt.input, tt.count); got != tt.want {
				t.Errorf("parseSelection(%q, %d) = %d, want %d", tt.input, tt.count, got, tt.want)
			}
		})
	}
}

func TestParseHostSpec(t *testing.T) {
	tests := []struct {
		spec     string
		wantUser string
		wantHost string
		wantErr  bool
	}{
		{"root@192.168.1.1", "root", "192.168.1.1", false},
		{"admin@router.lan", "admin", "router.lan", false},
		{"192.168.1.1", "root", "192.168.1.1", false},
		{"@192.168.1.1", "", "", true},
		{"root@", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			user, host, err := parseHostSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHostSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if user != tt.wantUser || host != tt.wantHost {
				t.Errorf("parseHostSpec(%q) = %q, %q; want %q, %q", tt.spec, user, host, tt.wantUser, tt.wantHost)
			}
		})
	}
}

func TestResolveTargetName(t *testing.T) {
	t.Run("argument wins", func(t *testing.T) {
		t.Setenv(EnvTarget, "bench")
		name, err := resolveTargetName([]string{"qemu"})
		if err != nil || name != "qemu" {
			t.Errorf("resolveTargetName() = %q, %v; want qemu", name, err)
		}
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv(EnvTarget, "bench")
		name, err := resolveTargetName(nil)
		if err != nil || name != "bench" {
			t.Errorf("resolveTargetName() = %q, %v; want bench", name, err)
		}
	})

	t.Run("nothing given", func(t *testing.T) {
		t.Setenv(EnvTarget, "")
		if _, err := resolveTargetName(nil); err == nil {
			t.Error("expected error when no target is given")
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		if _, err := resolveTargetName([]string{"../etc"}); err == nil {
			t.Error("expected error for invalid target name")
		}
	})
}

func TestLoadTarget(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	globalCfg := config.DefaultGlobalConfig()
	if err := globalCfg.AddTarget("qemu", config.TargetConfig{Host: "192.168.1.1", Features: []string{"rootfs"}}); err != nil {
		t.Fatalf("AddTarget() error = %v", err)
	}
	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		t.Fatalf("SaveGlobalConfig() error = %v", err)
	}

	target, _, err := loadTarget("qemu")
	if err != nil {
		t.Fatalf("loadTarget() error = %v", err)
	}
	if target.Host != "192.168.1.1" || target.User != "root" || target.Port != 22 {
		t.Errorf("unexpected target: %+v", target)
	}
	if !target.HasFeature("rootfs") {
		t.Error("expected rootfs feature to survive the round trip")
	}

	if _, _, err := loadTarget("missing"); err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestSSHOpts(t *testing.T) {
	tests := []struct {
		name   string
		target config.TargetConfig
		global config.GlobalConfig
		want   int
	}{
		{
			name:   "key only",
			target: config.TargetConfig{Host: "h", User: "root", KeyPath: "/k"},
			want:   0,
		},
		{
			name:   "no key tries empty password",
			target: config.TargetConfig{Host: "h", User: "root"},
			want:   1,
		},
		{
			name:   "password insecure and timeout",
			target: config.TargetConfig{Host: "h", User: "root", KeyPath: "/k", Password: "pw", InsecureHostKey: true},
			global: config.GlobalConfig{SSHTimeout: "10s"},
			want:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := sshOpts(&tt.target, &tt.global, nil)
			if err != nil {
				t.Fatalf("sshOpts() error = %v", err)
			}
			if len(opts) != tt.want {
				t.Errorf("len(sshOpts()) = %d, want %d", len(opts), tt.want)
			}
		})
	}
}

func TestNewShellTransport(t *testing.T) {
	if tr := newShellTransport(&config.TargetConfig{}); tr != nil {
		t.Errorf("expected nil transport without shell prefix, got %T", tr)
	}

	tr := newShellTransport(&config.TargetConfig{Shell: []string{"docker", "exec", "-i", "openwrt", "sh", "-c"}})
	sh, ok := tr.(*shell.Shell)
	if !ok {
		t.Fatalf("expected *shell.Shell, got %T", tr)
	}
	if strings.Join(sh.Prefix, " ") != "docker exec -i openwrt sh -c" {
		t.Errorf("Prefix = %v", sh.Prefix)
	}
}

func TestWriteCheckTable(t *testing.T) {
	checks := []*suite.Check{
		{Name: "base.Echo", Desc: "echo round trip", Needs: suite.TransportShell},
		{Name: "base.SysupgradeBackup", Desc: "backup contents", Needs: suite.TransportSSH, Features: []string{"rootfs"}},
	}

	var buf bytes.Buffer
	writeCheckTable(&buf, checks)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); fields[0] != "base.Echo" || fields[1] != "shell" || fields[2] != "-" {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if fields := strings.Fields(lines[2]); fields[1] != "ssh" || fields[2] != "rootfs" {
		t.Errorf("unexpected row: %q", lines[2])
	}
}

func TestWriteRunTable(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []results.RunSummary{
		{ID: "run-1", Target: "qemu", Started: started, Finished: started.Add(90 * time.Second), Passed: 8, Failed: 1, Skipped: 1},
	}

	var buf bytes.Buffer
	writeRunTable(&buf, runs)

	out := buf.String()
	for _, want := range []string{"run-1", "qemu", "1m30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	fields := strings.Fields(strings.Split(strings.TrimSpace(out), "\n")[1])
	if got := fields[len(fields)-3:]; got[0] != "8" || got[1] != "1" || got[2] != "1" {
		t.Errorf("counts = %v, want [8 1 1]", got)
	}
}

func TestWriteRunDetail(t *testing.T) {
	run := &results.Run{
		ID:      "run-1",
		Target:  "qemu",
		Started: time.Now(),
		Bag:     map[string]any{"used_memory": int64(42), "board_name": "x86-64"},
		Outcomes: []results.Outcome{
			{Check: "base.Echo", Status: results.StatusPass, Duration: time.Millisecond},
			{Check: "base.KernelErrors", Status: results.StatusFail, Message: "Found kernel error"},
		},
	}

	var buf bytes.Buffer
	writeRunDetail(&buf, run)
	out := buf.String()

	for _, want := range []string{"base.Echo", "PASS", "FAIL", "Found kernel error", "Recorded values:", "used_memory", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "board_name") > strings.Index(out, "used_memory") {
		t.Error("expected recorded values sorted by key")
	}
}

func TestBuildLogreadCommand(t *testing.T) {
	tests := []struct {
		name    string
		follow  bool
		lines   int
		filter  string
		want    string
		wantErr bool
	}{
		{name: "plain", want: "logread"},
		{name: "lines", lines: 50, want: "logread -l 50"},
		{name: "filter escaped", filter: "drop'bear", want: `logread -e 'drop'\''bear'`},
		{name: "follow", follow: true, lines: 10, filter: "kernel", want: "logread -l 10 -e 'kernel' -f"},
		{name: "negative lines", lines: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildLogreadCommand(tt.follow, tt.lines, tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildLogreadCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("buildLogreadCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	defer func() { logJSON, verbose = false, false }()

	var buf bytes.Buffer
	logJSON = true
	log := newLogger(&buf)
	log.Debug().Msg("hidden")
	log.Info().Str("check", "base.Echo").Msg("done")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line written without --verbose")
	}
	if !strings.Contains(out, `"check":"base.Echo"`) {
		t.Errorf("expected JSON field, got %q", out)
	}

	buf.Reset()
	verbose = true
	log = newLogger(&buf)
	log.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug line missing with --verbose")
	}
}
