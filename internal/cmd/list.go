package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/suite"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available checks",
	Long: `Lists the registered checks in run order, with the transport they use
and the features they require.

Example:
  wrtprobe list
  wrtprobe list --feature rootfs`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listFeature string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFeature, "feature", "f", "", "Only list checks requiring this feature")
}

func runList(cmd *cobra.Command, args []string) error {
	checks := suite.All()
	if listFeature != "" {
		checks = suite.WithFeature(checks, listFeature)
	}
	writeCheckTable(os.Stdout, checks)
	return nil
}

func writeCheckTable(out io.Writer, checks []*suite.Check) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTRANSPORT\tFEATURES\tDESCRIPTION")
	for _, c := range checks {
		features := strings.Join(c.Features, ",")
		if features == "" {
			features = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Needs, features, c.Desc)
	}
	w.Flush()
}
