package config

import (
	"strings"
	"testing"
)

func TestValidateSuiteConfig(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *SuiteConfig)
		wantErrors bool
		field      string
	}{
		{
			name:       "valid defaults",
			mutate:     func(c *SuiteConfig) {},
			wantErrors: false,
		},
		{
			name:       "missing distribution",
			mutate:     func(c *SuiteConfig) { c.Expect.Distribution = "" },
			wantErrors: true,
			field:      "expect.distribution",
		},
		{
			name:       "negative threshold",
			mutate:     func(c *SuiteConfig) { c.Memory.UsedThresholdMB = intPtr(-1) },
			wantErrors: true,
			field:      "memory.used_threshold_mb",
		},
		{
			name:       "zero attempts",
			mutate:     func(c *SuiteConfig) { c.Dropbear.Attempts = 0 },
			wantErrors: true,
			field:      "dropbear.attempts",
		},
		{
			name:       "bad interval",
			mutate:     func(c *SuiteConfig) { c.Dropbear.Interval = "every second" },
			wantErrors: true,
			field:      "dropbear.interval",
		},
		{
			name:       "relative backup path",
			mutate:     func(c *SuiteConfig) { c.Backup.Path = "backup.tar.gz" },
			wantErrors: true,
			field:      "backup.path",
		},
		{
			name:       "injection in backup path",
			mutate:     func(c *SuiteConfig) { c.Backup.Path = "/tmp/x; reboot" },
			wantErrors: true,
			field:      "backup.path",
		},
		{
			name:       "absolute config entry",
			mutate:     func(c *SuiteConfig) { c.Backup.ConfigEntry = "/etc/config/dropbear" },
			wantErrors: true,
			field:      "backup.config_entry",
		},
		{
			name:       "unknown store",
			mutate:     func(c *SuiteConfig) { c.Results.Store = "postgres" },
			wantErrors: true,
			field:      "results.store",
		},
		{
			name:       "check timeout shorter than dropbear poll",
			mutate:     func(c *SuiteConfig) { c.CheckTimeout = "30s" },
			wantErrors: true,
			field:      "check_timeout",
		},
		{
			name:       "check timeout equal to dropbear poll",
			mutate:     func(c *SuiteConfig) { c.Dropbear.Attempts = 10; c.CheckTimeout = "11s" },
			wantErrors: true,
			field:      "check_timeout",
		},
		{
			name: "short poll fits short timeout",
			mutate: func(c *SuiteConfig) {
				c.Dropbear.Attempts = 5
				c.Dropbear.Interval = "100ms"
				c.CheckTimeout = "10s"
			},
			wantErrors: false,
		},
		{
			name:       "bad check timeout",
			mutate:     func(c *SuiteConfig) { c.CheckTimeout = "-5s" },
			wantErrors: true,
			field:      "check_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSuiteConfig()
			tt.mutate(cfg)
			errs := ValidateSuiteConfig(cfg)
			if errs.HasErrors() != tt.wantErrors {
				t.Fatalf("ValidateSuiteConfig() errors = %v, wantErrors %v", errs, tt.wantErrors)
			}
			if tt.field != "" && !strings.Contains(errs.Error(), tt.field) {
				t.Errorf("expected error on field %s, got %v", tt.field, errs)
			}
		})
	}
}

func TestValidateTargetConfig(t *testing.T) {
	tests := []struct {
		name       string
		config     *TargetConfig
		wantErrors bool
	}{
		{
			name:       "valid target",
			config:     &TargetConfig{Host: "192.168.1.1", User: "root", Port: 22},
			wantErrors: false,
		},
		{
			name:       "missing host",
			config:     &TargetConfig{User: "root", Port: 22},
			wantErrors: true,
		},
		{
			name:       "missing user",
			config:     &TargetConfig{Host: "192.168.1.1", Port: 22},
			wantErrors: true,
		},
		{
			name:       "invalid user",
			config:     &TargetConfig{Host: "192.168.1.1", User: "root;id", Port: 22},
			wantErrors: true,
		},
		{
			name:       "port out of range",
			config:     &TargetConfig{Host: "192.168.1.1", User: "root", Port: 70000},
			wantErrors: true,
		},
		{
			name:       "invalid feature",
			config:     &TargetConfig{Host: "192.168.1.1", User: "root", Port: 22, Features: []string{"Root FS"}},
			wantErrors: true,
		},
		{
			name:       "valid features",
			config:     &TargetConfig{Host: "192.168.1.1", User: "root", Port: 22, Features: []string{"rootfs", "wifi"}},
			wantErrors: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateTargetConfig(tt.config)
			if errs.HasErrors() != tt.wantErrors {
				t.Errorf("ValidateTargetConfig() errors = %v, wantErrors %v", errs, tt.wantErrors)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var empty ValidationErrors
	if empty.Error() != "" {
		t.Errorf("expected empty message, got %q", empty.Error())
	}

	errs := ValidationErrors{
		{Field: "host", Message: "target host is required"},
		{Field: "port", Message: "port must be between 1 and 65535"},
	}
	want := "host: target host is required; port: port must be between 1 and 65535"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}
