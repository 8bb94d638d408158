package suite

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yoanbernabeu/wrtprobe/internal/config"
	"github.com/yoanbernabeu/wrtprobe/internal/results"
	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// DialFunc connects the SSH transport on first use
type DialFunc func(ctx context.Context) (transport.Fetcher, error)

// Session is the state shared by every check of one run against one target:
// the transports, the enabled features, the results bag and the suite config.
type Session struct {
	target   string
	shell    transport.Executor
	dial     DialFunc
	features map[string]bool
	config   *config.SuiteConfig
	bag      *results.Bag
	workDir  string

	mu  sync.Mutex
	ssh transport.Fetcher
}

// SessionOptions configures a Session
type SessionOptions struct {
	Target string
	// Shell is the local shell transport; nil falls back to SSH
	Shell transport.Executor
	// DialSSH connects the SSH transport; nil means none is available
	DialSSH  DialFunc
	Features []string
	Config   *config.SuiteConfig
	// WorkDir receives files fetched from the device
	WorkDir string
}

// NewSession creates a session with an empty results bag
func NewSession(opts SessionOptions) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultSuiteConfig()
	}
	features := make(map[string]bool, len(opts.Features))
	for _, f := range opts.Features {
		features[f] = true
	}
	return &Session{
		target:   opts.Target,
		shell:    opts.Shell,
		dial:     opts.DialSSH,
		features: features,
		config:   cfg,
		bag:      results.NewBag(),
		workDir:  opts.WorkDir,
	}
}

// Bag returns the session's results bag
func (s *Session) Bag() *results.Bag {
	return s.bag
}

// Target returns the target name
func (s *Session) Target() string {
	return s.target
}

// sshTransport returns the SSH transport, dialing it the first time
func (s *Session) sshTransport(ctx context.Context) (transport.Fetcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ssh != nil {
		return s.ssh, nil
	}
	if s.dial == nil {
		return nil, fmt.Errorf("no ssh transport configured for target %s", s.target)
	}
	ssh, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("ssh connect: %w", err)
	}
	s.ssh = ssh
	return ssh, nil
}

// Close releases the transports
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.ssh != nil {
		if err := s.ssh.Close(); err != nil {
			firstErr = err
		}
		s.ssh = nil
	}
	if s.shell != nil {
		if err := s.shell.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// State is the explicit context handed to each check
type State struct {
	session *Session
	check   *Check
	labels  *results.Labels
	log     zerolog.Logger
}

func newState(session *Session, check *Check, log zerolog.Logger) *State {
	return &State{
		session: session,
		check:   check,
		labels:  results.NewLabels(),
		log:     log.With().Str("check", check.Name).Logger(),
	}
}

// Shell returns the shell transport, or the SSH transport when the target
// has no shell transport configured
func (s *State) Shell(ctx context.Context) (transport.Executor, error) {
	if s.session.shell != nil {
		return s.session.shell, nil
	}
	return s.session.sshTransport(ctx)
}

// SSH returns the SSH transport, connecting it on first use
func (s *State) SSH(ctx context.Context) (transport.Fetcher, error) {
	return s.session.sshTransport(ctx)
}

// Bag returns the run's results bag
func (s *State) Bag() *results.Bag {
	return s.session.bag
}

// Record stores a value in the results bag, logging values the bag rejects
func (s *State) Record(key string, value any) {
	if err := s.session.bag.Set(key, value); err != nil {
		s.log.Warn().Err(err).Msg("results bag rejected value")
	}
}

// Label attaches a reporting annotation to the current check
func (s *State) Label(key, value string) {
	s.labels.Set(key, value)
}

// Labels returns the current check's labels
func (s *State) Labels() map[string]string {
	return s.labels.All()
}

// Log returns the check's logger
func (s *State) Log() *zerolog.Logger {
	return &s.log
}

// WorkDir returns the local directory for files fetched from the device
func (s *State) WorkDir() string {
	return s.session.workDir
}

// Config returns the suite configuration
func (s *State) Config() *config.SuiteConfig {
	return s.session.config
}

// Check returns the running check
func (s *State) Check() *Check {
	return s.check
}
