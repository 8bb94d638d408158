// Package sysinfo parses the output of system information commands run on
// the device.
package sysinfo

import (
	"fmt"
	"strconv"
	"strings"
)

// Commands used to query the device
const (
	UnameCommand  = "uname -a"
	MemoryCommand = "free -m"
)

// KernelFamily is the operating system name printed by uname -a on Linux
const KernelFamily = "GNU/Linux"

// ParseUsedMemory returns the "used" column of the Mem: row of free output.
// That is the third whitespace-separated token of the second line:
//
//	              total        used        free      shared  buff/cache   available
//	Mem:            238          24         176           0          37         185
func ParseUsedMemory(lines []string) (int, error) {
	if len(lines) < 2 {
		return 0, fmt.Errorf("unexpected free output: %d lines, want at least 2", len(lines))
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 3 {
		return 0, fmt.Errorf("unexpected free output: %q has %d fields, want at least 3", lines[1], len(fields))
	}
	used, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, fmt.Errorf("unexpected free output: used column %q: %w", fields[2], err)
	}
	return used, nil
}

// IsKernelFamily reports whether uname output names the expected family
func IsKernelFamily(uname, family string) bool {
	return strings.Contains(uname, family)
}
