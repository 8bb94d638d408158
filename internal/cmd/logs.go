package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/klog"
	"github.com/yoanbernabeu/wrtprobe/internal/security"
)

var logsCmd = &cobra.Command{
	Use:   "logs <target>",
	Short: "Show the system log of a target",
	Long: `Displays the device system log (logread) over SSH.

With --scan the log is not printed; instead it is searched for the kernel
and userspace crash signatures base.KernelErrors looks for.

Example:
  wrtprobe logs qemu
  wrtprobe logs qemu --lines 50
  wrtprobe logs qemu -f --filter dropbear
  wrtprobe logs qemu --scan`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

var (
	logsFollow bool
	logsLines  int
	logsFilter string
	logsScan   bool
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "l", 0, "Number of lines to show (0 for all)")
	logsCmd.Flags().StringVarP(&logsFilter, "filter", "e", "", "Only show lines matching this pattern")
	logsCmd.Flags().BoolVar(&logsScan, "scan", false, "Scan the log for crash signatures instead of printing it")
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if logsScan && logsFollow {
		return fmt.Errorf("--scan and --follow cannot be combined")
	}

	logreadCommand, err := buildLogreadCommand(logsFollow, logsLines, logsFilter)
	if err != nil {
		return err
	}

	conn, err := ConnectToTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	if !logsScan {
		PrintVerboseCommand(logreadCommand)
		return conn.Client.ExecStream(ctx, logreadCommand)
	}

	log, err := klog.Fetch(ctx, conn.Client)
	if err != nil {
		return err
	}
	matches := klog.Scan(log, klog.Patterns)
	if len(matches) == 0 {
		PrintSuccess("No crash signatures in the system log")
		return nil
	}
	for _, m := range matches {
		PrintError("%s", m.Pattern)
		fmt.Println(dimFmt("      " + m.Line))
	}
	return fmt.Errorf("%d crash signatures found", len(matches))
}

func buildLogreadCommand(follow bool, lines int, filter string) (string, error) {
	if lines < 0 {
		return "", fmt.Errorf("invalid --lines value: must not be negative")
	}

	command := klog.ReadCommand
	if lines > 0 {
		command += " -l " + strconv.Itoa(lines)
	}
	if filter != "" {
		command += " -e " + security.ShellEscape(filter)
	}
	if follow {
		command += " -f"
	}
	return command, nil
}
