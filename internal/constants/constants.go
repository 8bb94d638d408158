package constants

import (
	"path/filepath"
	"time"
)

// Expected firmware identity
const (
	ExpectedDistribution = "OpenWrt"
	ExpectedKernelFamily = "GNU/Linux"
)

// Resource accounting
const (
	UsedMemoryThresholdMB = 10000
)

// Dropbear readiness defaults
const (
	DropbearHostKey       = "/etc/dropbear/dropbear_ed25519_host_key"
	DropbearPollAttempts  = 60
	DropbearPollInterval  = 1 * time.Second
	DropbearSettle        = 1 * time.Second
	DropbearListenAddress = "0.0.0.0:22"
)

// Backup defaults
const (
	BackupPath        = "/tmp/backup.tar.gz"
	BackupConfigEntry = "etc/config/dropbear"
)

// Run defaults
const (
	DefaultCheckTimeout = 5 * time.Minute
	DefaultWorkDir      = ".wrtprobe"
	ResultsDirName      = "results"
	ResultsDBName       = "results.db"
	DefaultSSHUser      = "root"
	DefaultSSHPort      = 22
)

// ResultsPath returns the default results store location under workDir for
// the given store kind.
func ResultsPath(workDir, kind string) string {
	if kind == "json" {
		return filepath.Join(workDir, ResultsDirName)
	}
	return filepath.Join(workDir, ResultsDBName)
}

// RunWorkDir returns the per-run scratch directory for downloaded artifacts.
func RunWorkDir(workDir, runID string) string {
	return filepath.Join(workDir, "runs", runID)
}
