// Package klog scans the device system log for signatures of kernel and
// userspace crashes.
package klog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// ReadCommand prints the combined kernel and system log on OpenWrt
const ReadCommand = "logread"

// Signatures of known catastrophic failures, in scan order
var Signatures = []string{
	`traps:.*general protection`,
	`segfault at [[:digit:]]+ ip`,
	`error.*in`,
	`do_page_fault\(\): sending`,
	`Unable to handle kernel.*address`,
	`(PC is at |pc : )([^+\[ ]+).*`, // ARM
	`epc\s+:\s+\S+\s+([^+ ]+).*`,    // MIPS
	`EIP: \[<.*>\] ([^+ ]+).*`,      // x86
}

// Patterns are the compiled Signatures
var Patterns = compile(Signatures)

func compile(exprs []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}

// Match is a signature found in the log
type Match struct {
	Pattern string
	Line    string
}

func (m Match) String() string {
	return fmt.Sprintf("%s (%q)", m.Pattern, m.Line)
}

// Scan returns one Match per pattern found in log, in pattern order.
// Line is the first line the pattern matched.
func Scan(log string, patterns []*regexp.Regexp) []Match {
	var matches []Match
	for _, re := range patterns {
		loc := re.FindStringIndex(log)
		if loc == nil {
			continue
		}
		matches = append(matches, Match{
			Pattern: re.String(),
			Line:    lineAt(log, loc[0]),
		})
	}
	return matches
}

// lineAt returns the line of s containing byte offset i
func lineAt(s string, i int) string {
	start := strings.LastIndexByte(s[:i], '\n') + 1
	end := strings.IndexByte(s[i:], '\n')
	if end == -1 {
		return s[start:]
	}
	return s[start : i+end]
}

// Fetch reads the device log and joins it into one blob
func Fetch(ctx context.Context, exec transport.Executor) (string, error) {
	result, err := exec.Run(ctx, ReadCommand)
	if err != nil {
		return "", fmt.Errorf("failed to read system log: %w", err)
	}
	if !result.Success() {
		return "", fmt.Errorf("%s failed (exit %d): %s", ReadCommand, result.ExitCode, result.ErrorOutput())
	}
	return strings.Join(result.Stdout, "\n"), nil
}
