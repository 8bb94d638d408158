package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// Run executes a command on the device and returns its output.
// A non-zero exit status is reported in the result, not as an error.
func (c *Client) Run(ctx context.Context, command string) (*transport.Result, error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = runSession(ctx, session, command)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("running %q: %w", command, ctxErr)
	}

	exitCode, err := exitStatus(err)
	if err != nil {
		return nil, fmt.Errorf("failed to execute command: %w", err)
	}

	return transport.NewResult(stdout.String(), stderr.String(), exitCode), nil
}

// runSession runs command on session and closes the session when ctx is
// cancelled, which unblocks Run.
func runSession(ctx context.Context, session *ssh.Session, command string) error {
	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return ctx.Err()
	}
}

// exitStatus maps a session error to an exit status. Errors other than a
// remote exit status are returned as-is.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	var missing *ssh.ExitMissingError
	if errors.As(err, &missing) {
		// dropbear may drop the exit-status message when the channel closes early
		return -1, nil
	}
	return 0, err
}

// ExecWithOutput executes a command and returns trimmed stdout, failing on
// a non-zero exit status
func (c *Client) ExecWithOutput(ctx context.Context, command string) (string, error) {
	result, err := c.Run(ctx, command)
	if err != nil {
		return "", err
	}

	output := result.Output()
	if !result.Success() {
		errMsg := result.ErrorOutput()
		if errMsg == "" {
			errMsg = output
		}
		return output, fmt.Errorf("command failed (exit %d): %s", result.ExitCode, errMsg)
	}

	return output, nil
}

// ExecStream executes a command and streams output to stdout/stderr
func (c *Client) ExecStream(ctx context.Context, command string) error {
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	return runSession(ctx, session, command)
}

// Shell opens an interactive shell
func (c *Client) Shell() error {
	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}

	height, width := 40, 80
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to set terminal raw mode: %w", err)
		}
		defer term.Restore(fd, state)
	}

	if err := session.RequestPty("xterm", height, width, modes); err != nil {
		return fmt.Errorf("failed to request pty: %w", err)
	}

	session.Stdin = os.Stdin
	session.Stdout = os.Stdout
	session.Stderr = os.Stderr

	if err := session.Shell(); err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}

	return session.Wait()
}
