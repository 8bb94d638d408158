package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/yoanbernabeu/wrtprobe/internal/config"
	"github.com/yoanbernabeu/wrtprobe/internal/security"
	"github.com/yoanbernabeu/wrtprobe/internal/shell"
	"github.com/yoanbernabeu/wrtprobe/internal/ssh"
	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// EnvTarget names the default target when none is given on the command line
const EnvTarget = "WRTPROBE_TARGET"

// TargetConnection holds a connected SSH client along with the target and global config.
type TargetConnection struct {
	Client *ssh.Client
	Target *config.TargetConfig
	Global *config.GlobalConfig
}

// resolveTargetName returns args[0], or $WRTPROBE_TARGET when no argument was given
func resolveTargetName(args []string) (string, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	} else {
		name = os.Getenv(EnvTarget)
	}
	if name == "" {
		return "", fmt.Errorf("no target given (pass a target name or set %s)", EnvTarget)
	}
	if err := security.ValidateTargetName(name); err != nil {
		return "", fmt.Errorf("invalid target name: %w", err)
	}
	return name, nil
}

// loadTarget validates the target name and loads its configuration
func loadTarget(name string) (*config.TargetConfig, *config.GlobalConfig, error) {
	if err := security.ValidateTargetName(name); err != nil {
		return nil, nil, fmt.Errorf("invalid target name: %w", err)
	}

	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load global config: %w", err)
	}

	targetCfg, err := globalCfg.GetTarget(name)
	if err != nil {
		return nil, nil, err
	}
	return targetCfg, globalCfg, nil
}

// newSSHClient builds an unconnected client for a target
func newSSHClient(targetCfg *config.TargetConfig, globalCfg *config.GlobalConfig, opts ...ssh.ClientOption) (*ssh.Client, error) {
	allOpts, err := sshOpts(targetCfg, globalCfg, opts)
	if err != nil {
		return nil, err
	}
	return ssh.NewClient(targetCfg.Host, targetCfg.User, targetCfg.Port, targetCfg.KeyPath, allOpts...), nil
}

// ConnectToTarget loads the target and establishes an SSH connection.
// The caller must defer conn.Client.Close().
func ConnectToTarget(ctx context.Context, name string, opts ...ssh.ClientOption) (*TargetConnection, error) {
	targetCfg, globalCfg, err := loadTarget(name)
	if err != nil {
		return nil, err
	}

	client, err := newSSHClient(targetCfg, globalCfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &TargetConnection{
		Client: client,
		Target: targetCfg,
		Global: globalCfg,
	}, nil
}

// sshOpts derives client options from the global and target config. An
// interactive password prompt (--ask-pass) overrides the configured password.
func sshOpts(targetCfg *config.TargetConfig, globalCfg *config.GlobalConfig, opts []ssh.ClientOption) ([]ssh.ClientOption, error) {
	var base []ssh.ClientOption
	if timeout := globalCfg.Timeout(); timeout > 0 {
		base = append(base, ssh.WithTimeout(timeout))
	}

	switch {
	case askPass:
		password, err := PromptPassword(fmt.Sprintf("%s@%s's password: ", targetCfg.User, targetCfg.Host))
		if err != nil {
			return nil, err
		}
		base = append(base, ssh.WithPassword(password))
	case targetCfg.Password != "" || targetCfg.KeyPath == "":
		// No key configured: try the (possibly empty) password, which is how
		// a freshly flashed device accepts root
		base = append(base, ssh.WithPassword(targetCfg.Password))
	}

	if targetCfg.InsecureHostKey {
		base = append(base, ssh.WithInsecureHostKey())
	}
	return append(base, opts...), nil
}

// newShellTransport returns the local shell transport for a target, or nil
// when the target has none configured and checks should use SSH instead
func newShellTransport(targetCfg *config.TargetConfig) transport.Executor {
	if len(targetCfg.Shell) == 0 {
		return nil
	}
	return shell.New(targetCfg.Shell)
}
