package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a wrtprobe.yaml with default settings",
	Long: `Writes a wrtprobe.yaml in the current directory holding every suite
setting at its default value, ready to be tuned for a board.

Example:
  wrtprobe init
  wrtprobe init --store json --work-dir /var/tmp/wrtprobe`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initForce   bool
	initStore   string
	initWorkDir string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
	initCmd.Flags().StringVar(&initStore, "store", "", "Results store: sqlite or json")
	initCmd.Flags().StringVar(&initWorkDir, "work-dir", "", "Directory for fetched files and results")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.SuiteConfigFile
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultSuiteConfig()
	if initStore != "" {
		cfg.Results.Store = initStore
	}
	if initWorkDir != "" {
		cfg.WorkDir = initWorkDir
	}

	if errors := config.ValidateSuiteConfig(cfg); errors.HasErrors() {
		return fmt.Errorf("invalid suite configuration: %w", errors)
	}

	if err := config.SaveSuiteConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	PrintSuccess("Created %s", path)
	printInitSummary(cfg)
	return nil
}

func printInitSummary(cfg *config.SuiteConfig) {
	fmt.Println()
	fmt.Println("Suite configuration:")
	fmt.Printf("   Distribution:  %s\n", cfg.Expect.Distribution)
	fmt.Printf("   Memory limit:  %d MB\n", cfg.Memory.Threshold())
	fmt.Printf("   Dropbear key:  %s (%d attempts, every %s)\n", cfg.Dropbear.HostKey, cfg.Dropbear.Attempts, cfg.Dropbear.Interval)
	fmt.Printf("   Backup:        %s\n", cfg.Backup.Path)
	fmt.Printf("   Results:       %s at %s\n", cfg.Results.Store, cfg.ResultsPath())

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review wrtprobe.yaml and adjust if needed")
	fmt.Println("  2. Run 'wrtprobe target add <name> <user@host>' to register a device")
	fmt.Println("  3. Run 'wrtprobe run <name>' to check it")
}
