package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored runs",
	Long:  `Commands to browse the runs saved by 'wrtprobe run'.`,
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResultsList,
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the outcomes and recorded values of a run",
	Long: `Shows every check outcome of a stored run followed by the values the
checks recorded, such as uname, board_name or used_memory.

Example:
  wrtprobe results show 3b1f7c2e-8d4a-4c6b-9a0e-2f5d1c7b9e41`,
	Args: cobra.ExactArgs(1),
	RunE: runResultsShow,
}

var resultsLimit int

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)

	resultsListCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
}

func openResultsStore() (results.Store, error) {
	suiteCfg, err := loadSuiteConfig()
	if err != nil {
		return nil, err
	}
	store, err := results.Open(logger, suiteCfg.Results.Store, suiteCfg.ResultsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}
	return store, nil
}

func runResultsList(cmd *cobra.Command, args []string) error {
	store, err := openResultsStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		PrintInfo("No runs stored yet")
		return nil
	}
	if resultsLimit > 0 && len(runs) > resultsLimit {
		runs = runs[:resultsLimit]
	}

	writeRunTable(os.Stdout, runs)
	return nil
}

func writeRunTable(out io.Writer, runs []results.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTARGET\tSTARTED\tDURATION\tPASSED\tFAILED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Target, r.Started.Local().Format(time.DateTime),
			r.Finished.Sub(r.Started).Round(time.Second), r.Passed, r.Failed, r.Skipped)
	}
	w.Flush()
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	store, err := openResultsStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Load(args[0])
	if err != nil {
		return err
	}

	writeRunDetail(os.Stdout, run)
	return nil
}

func writeRunDetail(out io.Writer, run *results.Run) {
	fmt.Fprintf(out, "Run %s on %s, started %s\n\n", run.ID, run.Target, run.Started.Local().Format(time.DateTime))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, o := range run.Outcomes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", statusLabel(o.Status), o.Check, o.Duration.Round(time.Millisecond), o.Message)
	}
	w.Flush()

	if len(run.Bag) == 0 {
		return
	}

	keys := make([]string, 0, len(run.Bag))
	for k := range run.Bag {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Recorded values:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\t%v\n", k, run.Bag[k])
	}
	w.Flush()
}
