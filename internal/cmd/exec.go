package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <target> <command>",
	Short: "Execute a command on a target",
	Long: `Executes a command on the device over SSH and streams its output.

Example:
  wrtprobe exec qemu logread -e dropbear
  wrtprobe exec qemu ubus call system board`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	targetName := args[0]
	command := strings.Join(args[1:], " ")

	conn, err := ConnectToTarget(cmd.Context(), targetName)
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	PrintVerboseCommand(command)
	logger.Debug().Str("target", targetName).Str("command", command).Msg("exec")

	return conn.Client.ExecStream(cmd.Context(), command)
}
