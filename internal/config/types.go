package config

import (
	"time"

	"github.com/yoanbernabeu/wrtprobe/internal/constants"
)

// SuiteConfig represents the wrtprobe.yaml configuration
type SuiteConfig struct {
	Expect       ExpectConfig   `yaml:"expect,omitempty"`
	Memory       MemoryConfig   `yaml:"memory,omitempty"`
	Dropbear     DropbearConfig `yaml:"dropbear,omitempty"`
	Backup       BackupConfig   `yaml:"backup,omitempty"`
	Results      ResultsConfig  `yaml:"results,omitempty"`
	CheckTimeout string         `yaml:"check_timeout,omitempty"`
	WorkDir      string         `yaml:"work_dir,omitempty"`
}

// ExpectConfig holds the firmware identity the checks assert
type ExpectConfig struct {
	Distribution string `yaml:"distribution,omitempty"`
	KernelFamily string `yaml:"kernel_family,omitempty"`
}

// MemoryConfig holds resource accounting thresholds
type MemoryConfig struct {
	// UsedThresholdMB is nil when unset, so an explicit 0 is kept
	UsedThresholdMB *int `yaml:"used_threshold_mb,omitempty"`
}

// Threshold returns the used memory threshold in MB
func (m MemoryConfig) Threshold() int {
	if m.UsedThresholdMB == nil {
		return constants.UsedMemoryThresholdMB
	}
	return *m.UsedThresholdMB
}

// DropbearConfig holds the SSH daemon readiness poll settings
type DropbearConfig struct {
	HostKey  string `yaml:"host_key,omitempty"`
	Attempts int    `yaml:"attempts,omitempty"`
	Interval string `yaml:"interval,omitempty"`
	Settle   string `yaml:"settle,omitempty"`
	Listen   string `yaml:"listen,omitempty"`
}

// BackupConfig holds the sysupgrade backup settings
type BackupConfig struct {
	Path        string `yaml:"path,omitempty"`
	ConfigEntry string `yaml:"config_entry,omitempty"`
}

// ResultsConfig selects where runs are stored
type ResultsConfig struct {
	// Store: sqlite (default) or json
	Store string `yaml:"store,omitempty"`
	// Path: database file or directory; defaults under work_dir
	Path string `yaml:"path,omitempty"`
}

// GlobalConfig represents the global ~/.config/wrtprobe/config.yaml
type GlobalConfig struct {
	Targets     map[string]TargetConfig `yaml:"targets"`
	DefaultUser string                  `yaml:"default_user,omitempty"`
	DefaultPort int                     `yaml:"default_port,omitempty"`
	SSHTimeout  string                  `yaml:"ssh_timeout,omitempty"`
}

// TargetConfig represents a device under test
type TargetConfig struct {
	Name            string   `yaml:"name,omitempty"`
	Host            string   `yaml:"host"`
	User            string   `yaml:"user"`
	Port            int      `yaml:"port,omitempty"`
	KeyPath         string   `yaml:"key_path,omitempty"`
	Password        string   `yaml:"password,omitempty"`
	InsecureHostKey bool     `yaml:"insecure_host_key,omitempty"`
	// Shell: argv prefix the local shell transport runs commands through,
	// e.g. [ssh, -T, root@192.168.1.1] or [docker, exec, -i, openwrt, sh, -c]
	Shell    []string `yaml:"shell,omitempty"`
	Features []string `yaml:"features,omitempty"`
}

// HasFeature reports whether the target advertises feature
func (t *TargetConfig) HasFeature(feature string) bool {
	for _, f := range t.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// DefaultSuiteConfig returns a suite configuration with the stock expectations
func DefaultSuiteConfig() *SuiteConfig {
	return &SuiteConfig{
		Expect: ExpectConfig{
			Distribution: constants.ExpectedDistribution,
			KernelFamily: constants.ExpectedKernelFamily,
		},
		Memory: MemoryConfig{
			UsedThresholdMB: intPtr(constants.UsedMemoryThresholdMB),
		},
		Dropbear: DropbearConfig{
			HostKey:  constants.DropbearHostKey,
			Attempts: constants.DropbearPollAttempts,
			Interval: constants.DropbearPollInterval.String(),
			Settle:   constants.DropbearSettle.String(),
			Listen:   constants.DropbearListenAddress,
		},
		Backup: BackupConfig{
			Path:        constants.BackupPath,
			ConfigEntry: constants.BackupConfigEntry,
		},
		Results: ResultsConfig{
			Store: "sqlite",
		},
		CheckTimeout: constants.DefaultCheckTimeout.String(),
		WorkDir:      constants.DefaultWorkDir,
	}
}

// DefaultGlobalConfig returns a default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Targets:     make(map[string]TargetConfig),
		DefaultUser: constants.DefaultSSHUser,
		DefaultPort: constants.DefaultSSHPort,
	}
}

// applyDefaults fills zero values left by a partial wrtprobe.yaml
func (c *SuiteConfig) applyDefaults() {
	d := DefaultSuiteConfig()
	if c.Expect.Distribution == "" {
		c.Expect.Distribution = d.Expect.Distribution
	}
	if c.Expect.KernelFamily == "" {
		c.Expect.KernelFamily = d.Expect.KernelFamily
	}
	if c.Memory.UsedThresholdMB == nil {
		c.Memory.UsedThresholdMB = d.Memory.UsedThresholdMB
	}
	if c.Dropbear.HostKey == "" {
		c.Dropbear.HostKey = d.Dropbear.HostKey
	}
	if c.Dropbear.Attempts == 0 {
		c.Dropbear.Attempts = d.Dropbear.Attempts
	}
	if c.Dropbear.Interval == "" {
		c.Dropbear.Interval = d.Dropbear.Interval
	}
	if c.Dropbear.Settle == "" {
		c.Dropbear.Settle = d.Dropbear.Settle
	}
	if c.Dropbear.Listen == "" {
		c.Dropbear.Listen = d.Dropbear.Listen
	}
	if c.Backup.Path == "" {
		c.Backup.Path = d.Backup.Path
	}
	if c.Backup.ConfigEntry == "" {
		c.Backup.ConfigEntry = d.Backup.ConfigEntry
	}
	if c.Results.Store == "" {
		c.Results.Store = d.Results.Store
	}
	if c.CheckTimeout == "" {
		c.CheckTimeout = d.CheckTimeout
	}
	if c.WorkDir == "" {
		c.WorkDir = d.WorkDir
	}
}

// PollInterval returns the dropbear poll interval, falling back to the default
// when unparsable
func (c *DropbearConfig) PollInterval() time.Duration {
	return parseDuration(c.Interval, constants.DropbearPollInterval)
}

// SettleDelay returns the pause between the poll and the listen check
func (c *DropbearConfig) SettleDelay() time.Duration {
	return parseDuration(c.Settle, constants.DropbearSettle)
}

// Budget returns the longest the dropbear poll and settle delay can take
func (c *DropbearConfig) Budget() time.Duration {
	return time.Duration(c.Attempts)*c.PollInterval() + c.SettleDelay()
}

// Timeout returns the per-check timeout
func (c *SuiteConfig) Timeout() time.Duration {
	return parseDuration(c.CheckTimeout, constants.DefaultCheckTimeout)
}

// ResultsPath returns the configured results store location
func (c *SuiteConfig) ResultsPath() string {
	if c.Results.Path != "" {
		return c.Results.Path
	}
	return constants.ResultsPath(c.WorkDir, c.Results.Store)
}

// Timeout returns the SSH dial timeout, zero when unset
func (c *GlobalConfig) Timeout() time.Duration {
	return parseDuration(c.SSHTimeout, 0)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func intPtr(v int) *int {
	return &v
}
