package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/results"
	"github.com/yoanbernabeu/wrtprobe/internal/security"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	verbose bool
	cfgFile string
	yesFlag bool // CI/CD: skip confirmations
	logJSON bool
	askPass bool

	logger = zerolog.Nop()
)

var (
	successFmt = color.New(color.FgGreen).SprintFunc()
	errorFmt   = color.New(color.FgRed, color.Bold).SprintFunc()
	infoFmt    = color.New(color.FgCyan).SprintFunc()
	warnFmt    = color.New(color.FgYellow).SprintFunc()
	dimFmt     = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "wrtprobe",
	Short: "Hardware-in-the-loop checks for OpenWrt firmware",
	Long: `wrtprobe runs firmware checks against OpenWrt devices in a lab,
over a local shell transport and over SSH, and records the results.

Quick start:
  wrtprobe target add qemu root@192.168.1.1 --password ''
  wrtprobe run qemu              # Run every check
  wrtprobe results list          # Show past runs

Commands:
  init          Create a wrtprobe.yaml with default settings
  run           Run checks against a target
  list          List available checks
  target        Configure devices under test
  exec          Execute a command on a target
  shell         Open an interactive shell on a target
  results       Inspect stored runs

CI/CD Environment Variables:
  WRTPROBE_TARGET              Default target name
  WRTPROBE_SSH_KEY             SSH private key content
  WRTPROBE_KNOWN_HOSTS         SSH known_hosts content
  WRTPROBE_SKIP_HOST_KEY_CHECK Skip host key verification (true/false)`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(os.Stderr)
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for documentation generation
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed logs")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Suite config file (default: wrtprobe.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmations (CI/CD mode)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&askPass, "ask-pass", false, "Prompt for the SSH password")

	rootCmd.SetVersionTemplate(`wrtprobe {{.Version}}
`)
}

// newLogger builds the process logger: human-readable on a console, JSON
// with --log-json, debug level with --verbose
func newLogger(out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	if !logJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// GetConfigFile returns the suite config file path
func GetConfigFile() string {
	return cfgFile
}

// IsYesMode returns true if --yes flag is set (CI/CD mode)
func IsYesMode() bool {
	return yesFlag
}

// PrintError prints a formatted error message
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, errorFmt("✗ ")+fmt.Sprintf(msg, args...))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	fmt.Println(successFmt("✓ ") + fmt.Sprintf(msg, args...))
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	fmt.Println(infoFmt("• ") + fmt.Sprintf(msg, args...))
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	fmt.Println(warnFmt("! ") + fmt.Sprintf(msg, args...))
}

// PrintVerbose prints a message only in verbose mode
func PrintVerbose(msg string, args ...interface{}) {
	if verbose {
		fmt.Println(dimFmt("  " + fmt.Sprintf(msg, args...)))
	}
}

// PrintVerboseCommand prints a command in verbose mode with sensitive values masked
func PrintVerboseCommand(command string) {
	if verbose {
		fmt.Println(dimFmt("  Running: " + security.SanitizeCommandForLog(command)))
	}
}

// statusLabel renders a check status padded and coloured for tables
func statusLabel(status results.Status) string {
	label := fmt.Sprintf("%-5s", status)
	switch status {
	case results.StatusPass:
		return color.New(color.FgGreen, color.Bold).Sprint(label)
	case results.StatusFail, results.StatusError:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	case results.StatusSkip:
		return color.New(color.FgYellow).Sprint(label)
	default:
		return label
	}
}
