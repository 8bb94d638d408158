package cmd

import (
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell <target>",
	Short: "Open an interactive shell on a target",
	Long: `Opens an interactive SSH shell session on the device.

Example:
  wrtprobe shell qemu`,
	Args: cobra.ExactArgs(1),
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	conn, err := ConnectToTarget(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	PrintInfo("Connected to %s, exit the shell to return", conn.Client.Addr())

	// Note: This requires PTY support
	return conn.Client.Shell()
}
