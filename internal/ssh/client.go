package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Connection defaults
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 15 * time.Second
)

// Environment variables read by the client
const (
	EnvSSHKey           = "WRTPROBE_SSH_KEY"
	EnvKnownHosts       = "WRTPROBE_KNOWN_HOSTS"
	EnvSkipHostKeyCheck = "WRTPROBE_SKIP_HOST_KEY_CHECK"
)

type clientOptions struct {
	timeout         time.Duration
	maxRetries      int
	initialDelay    time.Duration
	maxDelay        time.Duration
	password        *string
	insecureHostKey bool
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

// WithTimeout sets the dial and handshake timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// WithRetries sets how many times Connect retries after a failed dial
func WithRetries(n int) ClientOption {
	return func(o *clientOptions) { o.maxRetries = n }
}

// WithInitialDelay sets the first backoff delay between connection attempts
func WithInitialDelay(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.initialDelay = d }
}

// WithMaxDelay caps the backoff delay
func WithMaxDelay(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.maxDelay = d }
}

// WithPassword enables password authentication. An empty password is valid:
// a freshly flashed OpenWrt image has no root password.
func WithPassword(password string) ClientOption {
	return func(o *clientOptions) { o.password = &password }
}

// WithInsecureHostKey disables host key verification. Lab devices regenerate
// their host key on every reflash.
func WithInsecureHostKey() ClientOption {
	return func(o *clientOptions) { o.insecureHostKey = true }
}

// Client represents an SSH client connection to a device
type Client struct {
	Host    string
	User    string
	Port    int
	KeyPath string
	opts    clientOptions
	config  *ssh.ClientConfig
	client  *ssh.Client
}

// NewClient creates a new SSH client
func NewClient(host, user string, port int, keyPath string, opts ...ClientOption) *Client {
	if port == 0 {
		port = 22
	}
	o := clientOptions{
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		maxDelay:     DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		Host:    host,
		User:    user,
		Port:    port,
		KeyPath: keyPath,
		opts:    o,
	}
}

// Addr returns host:port
func (c *Client) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// Connect establishes an SSH connection, retrying with exponential backoff
func (c *Client) Connect(ctx context.Context) error {
	config, err := c.clientConfig()
	if err != nil {
		return err
	}
	c.config = config
	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= c.opts.maxRetries+1; attempt++ {
		client, err := dialContext(ctx, c.Addr(), c.config)
		if err == nil {
			c.client = client
			return nil
		}
		lastErr = err

		if attempt > c.opts.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to %s: %w", c.Addr(), ctx.Err())
		case <-time.After(c.backoffDelay(attempt)):
		}
	}
	return fmt.Errorf("failed to connect to %s: %w", c.Addr(), lastErr)
}

// dialContext is ssh.Dial with a context-aware TCP dial
func dialContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// backoffDelay returns the delay before attempt+1: initialDelay * 2^(attempt-1), capped
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.opts.initialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.opts.maxDelay {
			return c.opts.maxDelay
		}
	}
	if delay > c.opts.maxDelay {
		return c.opts.maxDelay
	}
	return delay
}

func (c *Client) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	signer, keyErr := c.loadPrivateKey()
	if signer != nil {
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if c.opts.password != nil {
		password := *c.opts.password
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("failed to load private key: %w", keyErr)
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("host key verification failed: %w", err)
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.opts.timeout,
	}, nil
}

// Close closes the SSH connection
func (c *Client) Close() error {
	if c.IsConnected() {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return c.client != nil
}

// loadPrivateKey loads the SSH private key
func (c *Client) loadPrivateKey() (ssh.Signer, error) {
	// CI: key content in the environment takes precedence
	if envKey := os.Getenv(EnvSSHKey); envKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(envKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", EnvSSHKey, err)
		}
		return signer, nil
	}

	keyPath := c.KeyPath
	if keyPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		keyPaths := []string{
			filepath.Join(homeDir, ".ssh", "id_ed25519"),
			filepath.Join(homeDir, ".ssh", "id_rsa"),
		}
		for _, p := range keyPaths {
			if _, err := os.Stat(p); err == nil {
				keyPath = p
				break
			}
		}
		if keyPath == "" {
			return nil, fmt.Errorf("no SSH key found (set %s for CI)", EnvSSHKey)
		}
	}

	keyPath = expandHome(keyPath)

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return signer, nil
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// hostKeyCallback returns the host key callback function.
// A known_hosts file is required unless the target opted out or
// WRTPROBE_SKIP_HOST_KEY_CHECK=true is set.
func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.opts.insecureHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if knownHostsContent := os.Getenv(EnvKnownHosts); knownHostsContent != "" {
		// knownhosts.New only reads files
		tmpFile, err := os.CreateTemp("", "known_hosts")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp known_hosts: %w", err)
		}
		defer os.Remove(tmpFile.Name())

		if _, err := tmpFile.WriteString(knownHostsContent); err != nil {
			tmpFile.Close()
			return nil, fmt.Errorf("failed to write temp known_hosts: %w", err)
		}
		tmpFile.Close()

		callback, err := knownhosts.New(tmpFile.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", EnvKnownHosts, err)
		}
		return callback, nil
	}

	if os.Getenv(EnvSkipHostKeyCheck) == "true" {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("SSH known_hosts file not found at %s. "+
			"Connect to the device manually first with: ssh %s@%s -p %d\n"+
			"For lab devices set insecure_host_key on the target, or %s=true",
			knownHostsPath, c.User, c.Host, c.Port, EnvSkipHostKeyCheck)
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read known_hosts: %w", err)
	}

	return callback, nil
}

// NewSession creates a new SSH session
func (c *Client) NewSession() (*ssh.Session, error) {
	if !c.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	return c.client.NewSession()
}
