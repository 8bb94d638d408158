package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/config"
	"github.com/yoanbernabeu/wrtprobe/internal/results"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
	"github.com/yoanbernabeu/wrtprobe/internal/transport"

	// Registers the base checks
	_ "github.com/yoanbernabeu/wrtprobe/internal/checks"
)

// ErrChecksFailed is returned when at least one check failed or errored
var ErrChecksFailed = errors.New("one or more checks failed")

var runCmd = &cobra.Command{
	Use:   "run [target]",
	Short: "Run checks against a target",
	Long: `Runs the registered checks against a device, one after another.

A check that fails does not stop the ones after it. Checks that need a
feature the target does not advertise are skipped. The run is saved to the
results store when it finishes.

Examples:
  wrtprobe run qemu
  wrtprobe run qemu --check 'base.Sysupgrade*' --feature rootfs
  WRTPROBE_TARGET=bench wrtprobe run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runChecks   []string
	runFeatures []string
	runWorkDir  string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayVarP(&runChecks, "check", "c", nil, "Only run checks matching this glob (repeatable)")
	runCmd.Flags().StringArrayVarP(&runFeatures, "feature", "f", nil, "Enable a feature in addition to the target's (repeatable)")
	runCmd.Flags().StringVar(&runWorkDir, "work-dir", "", "Directory for fetched files and results (default from wrtprobe.yaml)")
}

func runRun(cmd *cobra.Command, args []string) error {
	name, err := resolveTargetName(args)
	if err != nil {
		return err
	}

	targetCfg, globalCfg, err := loadTarget(name)
	if err != nil {
		return err
	}

	suiteCfg, err := loadSuiteConfig()
	if err != nil {
		return err
	}
	if runWorkDir != "" {
		suiteCfg.WorkDir = runWorkDir
	}

	checks, err := suite.Select(suite.All(), runChecks)
	if err != nil {
		return err
	}

	store, err := results.Open(logger, suiteCfg.Results.Store, suiteCfg.ResultsPath())
	if err != nil {
		return fmt.Errorf("failed to open results store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := suite.NewSession(suite.SessionOptions{
		Target: name,
		Shell:  newShellTransport(targetCfg),
		DialSSH: func(ctx context.Context) (transport.Fetcher, error) {
			client, err := newSSHClient(targetCfg, globalCfg)
			if err != nil {
				return nil, err
			}
			if err := client.Connect(ctx); err != nil {
				return nil, err
			}
			return client, nil
		},
		Features: append(append([]string{}, targetCfg.Features...), runFeatures...),
		Config:   suiteCfg,
	})

	PrintInfo("Running %d checks against %s (%s)", len(checks), name, targetCfg.Host)

	runner := suite.NewRunner(logger, session, store)
	runner.OnOutcome = printOutcome

	run, err := runner.Run(ctx, checks)
	if run == nil {
		return err
	}
	if err != nil {
		PrintWarning("%v", err)
	}

	printRunSummary(run)
	if !run.Passed() {
		return ErrChecksFailed
	}
	return nil
}

// loadSuiteConfig loads and validates wrtprobe.yaml
func loadSuiteConfig() (*config.SuiteConfig, error) {
	suiteCfg, err := config.LoadSuiteConfig(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if errs := config.ValidateSuiteConfig(suiteCfg); errs.HasErrors() {
		return nil, fmt.Errorf("invalid suite configuration: %w", errs)
	}
	return suiteCfg, nil
}

func printOutcome(o results.Outcome) {
	line := fmt.Sprintf("%s %-34s %s", statusLabel(o.Status), o.Check, dimFmt(o.Duration.Round(time.Millisecond).String()))
	fmt.Println(line)
	if o.Message != "" && o.Status != results.StatusPass {
		fmt.Println(dimFmt("      " + o.Message))
	}
}

func printRunSummary(run *results.Run) {
	counts := run.Counts()
	fmt.Println()
	summary := fmt.Sprintf("%d passed, %d failed, %d errors, %d skipped in %s (run %s)",
		counts[results.StatusPass], counts[results.StatusFail], counts[results.StatusError],
		counts[results.StatusSkip], run.Finished.Sub(run.Started).Round(time.Millisecond), run.ID)
	if run.Passed() {
		PrintSuccess("%s", summary)
	} else {
		PrintError("%s", summary)
	}
}
