package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yoanbernabeu/wrtprobe/internal/config"
	"github.com/yoanbernabeu/wrtprobe/internal/security"
	"github.com/yoanbernabeu/wrtprobe/internal/ssh"
	"github.com/yoanbernabeu/wrtprobe/internal/ubus"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage devices under test",
	Long:  `Commands to add, inspect, and remove the devices checks run against.`,
}

var targetAddCmd = &cobra.Command{
	Use:   "add <name> <user@host>",
	Short: "Add a new target",
	Long: `Adds a device to the global configuration.

A freshly flashed OpenWrt image accepts root over SSH with an empty
password, which is what is tried when no key is given.

Example:
  wrtprobe target add qemu root@192.168.1.1
  wrtprobe target add bench root@10.0.0.2 --key ~/.ssh/lab_ed25519 --feature rootfs
  wrtprobe target add container root@172.17.0.2 --shell docker,exec,-i,openwrt,sh,-c`,
	Args: cobra.ExactArgs(2),
	RunE: runTargetAdd,
}

var targetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured targets",
	RunE:  runTargetList,
}

var targetRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a target",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetRemove,
}

var targetTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Test the SSH connection to a target",
	Long: `Connects to the target over SSH and prints the board it reports.`,
	Args: cobra.ExactArgs(1),
	RunE: runTargetTest,
}

var (
	targetPort            int
	targetKeyPath         string
	targetPassword        string
	targetShell           []string
	targetFeatures        []string
	targetInsecureHostKey bool
	skipSSHTest           bool
)

func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.AddCommand(targetAddCmd)
	targetCmd.AddCommand(targetListCmd)
	targetCmd.AddCommand(targetRemoveCmd)
	targetCmd.AddCommand(targetTestCmd)

	targetAddCmd.Flags().IntVarP(&targetPort, "port", "p", 22, "SSH port")
	targetAddCmd.Flags().StringVarP(&targetKeyPath, "key", "k", "", "SSH private key path")
	targetAddCmd.Flags().StringVar(&targetPassword, "password", "", "SSH password (stored in the global config)")
	targetAddCmd.Flags().StringSliceVar(&targetShell, "shell", nil, "Local command prefix for the shell transport, comma separated")
	targetAddCmd.Flags().StringArrayVarP(&targetFeatures, "feature", "f", nil, "Feature the target supports (repeatable)")
	targetAddCmd.Flags().BoolVar(&targetInsecureHostKey, "insecure-host-key", false, "Skip host key verification for this target")
	targetAddCmd.Flags().BoolVar(&skipSSHTest, "skip-test", false, "Skip SSH connection test")
}

func runTargetAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	hostSpec := args[1]

	// Validate target name
	if err := security.ValidateTargetName(name); err != nil {
		return fmt.Errorf("invalid target name: %w", err)
	}

	// Parse user@host
	user, host, err := parseHostSpec(hostSpec)
	if err != nil {
		return err
	}

	// Load global config
	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}

	targetCfg := config.TargetConfig{
		Host:            host,
		User:            user,
		Port:            targetPort,
		KeyPath:         targetKeyPath,
		Password:        targetPassword,
		InsecureHostKey: targetInsecureHostKey,
		Shell:           targetShell,
		Features:        targetFeatures,
	}

	if errors := config.ValidateTargetConfig(&targetCfg); errors.HasErrors() {
		return fmt.Errorf("invalid target configuration: %w", errors)
	}

	if err := globalCfg.AddTarget(name, targetCfg); err != nil {
		return err
	}

	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Added target '%s' (%s@%s)", name, user, host)

	if skipSSHTest {
		PrintInfo("Skipping SSH connection test (--skip-test)")
		printNextSteps(name)
		return nil
	}

	if err := testAndConfigureSSH(cmd, name, &targetCfg, globalCfg); err != nil {
		PrintWarning("SSH connection could not be established: %v", err)
		PrintInfo("You can test the connection manually with: ssh %s@%s -p %d", user, host, targetCfg.Port)
	}

	printNextSteps(name)
	return nil
}

// parseHostSpec splits user@host. A bare host means root, the only account
// on a stock image.
func parseHostSpec(spec string) (string, string, error) {
	if !strings.Contains(spec, "@") {
		if spec == "" {
			return "", "", fmt.Errorf("invalid host format, use user@host")
		}
		return "root", spec, nil
	}
	parts := strings.SplitN(spec, "@", 2)
	if parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid host format, use user@host")
	}
	return parts[0], parts[1], nil
}

func printNextSteps(name string) {
	fmt.Println()
	fmt.Println("Next step:")
	fmt.Printf("  Run 'wrtprobe run %s' to check the device\n", name)
}

// testAndConfigureSSH tests the SSH connection and tries local keys if needed
func testAndConfigureSSH(cmd *cobra.Command, name string, targetCfg *config.TargetConfig, globalCfg *config.GlobalConfig) error {
	PrintInfo("Testing SSH connection...")
	ctx := cmd.Context()

	client, err := newSSHClient(targetCfg, globalCfg, ssh.WithRetries(0))
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err == nil {
		client.Close()
		PrintSuccess("SSH connection successful")
		return nil
	}

	PrintWarning("Connection failed with the configured credentials")

	// Discover available SSH keys
	keys, err := ssh.DiscoverSSHKeys()
	if err != nil {
		return fmt.Errorf("failed to discover SSH keys: %w", err)
	}

	// Filter out encrypted keys and already tried key
	var availableKeys []ssh.KeyInfo
	for _, key := range keys {
		if key.IsEncrypted {
			PrintVerbose("Skipping encrypted key: %s", key.Name)
			continue
		}
		if targetCfg.KeyPath != "" && key.Path == targetCfg.KeyPath {
			continue
		}
		availableKeys = append(availableKeys, key)
	}

	if len(availableKeys) == 0 {
		return fmt.Errorf("no SSH keys available to try")
	}

	var workingKey *ssh.KeyInfo
	if IsInteractive() {
		workingKey = interactiveKeySelection(cmd, targetCfg, availableKeys)
	} else {
		workingKey = autoTryKeys(cmd, targetCfg, availableKeys)
	}

	if workingKey == nil {
		return fmt.Errorf("no working SSH key found")
	}

	// Update target config with working key
	targetCfg.KeyPath = workingKey.Path
	stored := globalCfg.Targets[name]
	stored.KeyPath = workingKey.Path
	globalCfg.Targets[name] = stored

	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Updated target config with key: %s", workingKey.Path)
	return nil
}

// interactiveKeySelection prompts the user to select an SSH key
func interactiveKeySelection(cmd *cobra.Command, targetCfg *config.TargetConfig, keys []ssh.KeyInfo) *ssh.KeyInfo {
	options := make([]string, len(keys))
	for i, key := range keys {
		options[i] = fmt.Sprintf("%s (%s)", key.Name, key.Type)
	}

	fmt.Println()
	PrintInfo("Available SSH keys:")
	choice := PromptSelect("Select SSH key to use:", options)
	if choice < 0 {
		return nil
	}

	selectedKey := &keys[choice]
	PrintInfo("Testing with %s...", selectedKey.Path)

	if err := tryKey(cmd, targetCfg, selectedKey.Path); err != nil {
		PrintError("Connection failed: %v", err)
		return nil
	}

	PrintSuccess("Connection successful!")
	return selectedKey
}

// autoTryKeys automatically tries available keys in order
func autoTryKeys(cmd *cobra.Command, targetCfg *config.TargetConfig, keys []ssh.KeyInfo) *ssh.KeyInfo {
	PrintInfo("Trying available SSH keys automatically...")

	for i := range keys {
		key := &keys[i]
		PrintVerbose("Trying %s...", key.Name)
		if err := tryKey(cmd, targetCfg, key.Path); err == nil {
			PrintSuccess("SSH connection successful with %s", key.Name)
			return key
		}
	}

	return nil
}

func tryKey(cmd *cobra.Command, targetCfg *config.TargetConfig, keyPath string) error {
	var opts []ssh.ClientOption
	if targetCfg.InsecureHostKey {
		opts = append(opts, ssh.WithInsecureHostKey())
	}
	return ssh.TryConnect(cmd.Context(), targetCfg.Host, targetCfg.User, targetCfg.Port, keyPath, opts...)
}

func runTargetList(cmd *cobra.Command, args []string) error {
	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	targets := globalCfg.ListTargets()
	if len(targets) == 0 {
		PrintInfo("No targets configured")
		fmt.Println()
		fmt.Println("Add a target with:")
		fmt.Println("  wrtprobe target add <name> <user@host>")
		return nil
	}

	fmt.Println("Configured targets:")
	fmt.Println()
	for _, name := range targets {
		target := globalCfg.Targets[name]
		fmt.Printf("  %s\n", name)
		fmt.Printf("    Host: %s@%s:%d\n", target.User, target.Host, target.Port)
		if target.KeyPath != "" {
			fmt.Printf("    Key:  %s\n", target.KeyPath)
		}
		if len(target.Shell) > 0 {
			fmt.Printf("    Shell: %s\n", strings.Join(target.Shell, " "))
		}
		if len(target.Features) > 0 {
			fmt.Printf("    Features: %s\n", strings.Join(target.Features, ", "))
		}
		fmt.Println()
	}

	return nil
}

func runTargetRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := security.ValidateTargetName(name); err != nil {
		return fmt.Errorf("invalid target name: %w", err)
	}

	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	if err := globalCfg.RemoveTarget(name); err != nil {
		return err
	}

	if err := config.SaveGlobalConfig(globalCfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Removed target '%s'", name)
	return nil
}

func runTargetTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	PrintInfo("Connecting to %s...", args[0])
	conn, err := ConnectToTarget(ctx, args[0])
	if err != nil {
		return err
	}
	defer conn.Client.Close()

	PrintSuccess("Connected to %s", conn.Client.Addr())

	board, err := ubus.Board(ctx, conn.Client)
	if err != nil {
		PrintWarning("Could not query board info: %v", err)
		return nil
	}

	fmt.Printf("    Model:   %s\n", board.Model)
	fmt.Printf("    Board:   %s\n", board.BoardName)
	fmt.Printf("    Release: %s\n", board.Release.Description)
	fmt.Printf("    Kernel:  %s\n", board.Kernel)

	if uptime, err := conn.Client.ExecWithOutput(ctx, "uptime"); err == nil {
		fmt.Printf("    Uptime:  %s\n", uptime)
	}
	return nil
}
