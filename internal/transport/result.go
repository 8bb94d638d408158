package transport

import "strings"

// Result holds the outcome of a command run through a transport.
// Output is kept as ordered lines with the trailing newline removed.
type Result struct {
	Stdout   []string
	Stderr   []string
	ExitCode int
}

// NewResult builds a Result from raw stdout/stderr text
func NewResult(stdout, stderr string, exitCode int) *Result {
	return &Result{
		Stdout:   SplitLines(stdout),
		Stderr:   SplitLines(stderr),
		ExitCode: exitCode,
	}
}

// Success returns true if the command exited with status 0
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Line returns stdout line i, or "" if there is no such line
func (r *Result) Line(i int) string {
	if i < 0 || i >= len(r.Stdout) {
		return ""
	}
	return r.Stdout[i]
}

// Output returns stdout lines joined with newlines
func (r *Result) Output() string {
	return strings.Join(r.Stdout, "\n")
}

// ErrorOutput returns stderr lines joined with newlines
func (r *Result) ErrorOutput() string {
	return strings.Join(r.Stderr, "\n")
}

// SplitLines splits text into lines. A single trailing newline does not
// produce an empty last line, and CRLF endings are normalised.
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
