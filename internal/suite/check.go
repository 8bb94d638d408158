// Package suite runs registered device checks against one target and
// collects their outcomes.
package suite

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Transport names the transport a check drives the device through
type Transport int

const (
	// TransportShell runs commands through the local shell transport
	TransportShell Transport = iota
	// TransportSSH runs commands over the SSH client
	TransportSSH
)

func (t Transport) String() string {
	switch t {
	case TransportShell:
		return "shell"
	case TransportSSH:
		return "ssh"
	default:
		return fmt.Sprintf("transport(%d)", int(t))
	}
}

// Func is the body of a check. Returning a *Failure marks the check FAIL;
// any other error marks it ERROR.
type Func func(ctx context.Context, s *State) error

// Check is a single named device check with its selection metadata
type Check struct {
	Name string
	Desc string
	// Features the target must advertise for the check to run
	Features []string
	Needs    Transport
	// Timeout overrides the runner default when non-zero
	Timeout time.Duration
	Func    Func
}

// Failure is an unmet expectation on device state
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Failf returns a *Failure with a formatted message
func Failf(format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// IsFailure reports whether err is (or wraps) a *Failure
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
