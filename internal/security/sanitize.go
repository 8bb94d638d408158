package security

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var (
	// targetNameRegex validates target configuration names
	// Allows: letters, numbers, underscores, hyphens
	// Length: 1-64 characters
	targetNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,62}[a-zA-Z0-9])?$`)

	// unixUserRegex validates Unix usernames
	unixUserRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

	// featureRegex validates feature flag names (e.g. "rootfs", "wifi-5g")
	featureRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

	// remotePathRegex validates absolute paths on the device
	remotePathRegex = regexp.MustCompile(`^/[a-zA-Z0-9_./-]*$`)

	// sensitiveLogPatterns are masked by SanitizeCommandForLog
	sensitiveLogPatterns = []string{
		"PASSWORD=",
		"password=",
		"KEY=",
		"key=",
	}
)

// ValidateTargetName validates a target configuration name
func ValidateTargetName(name string) error {
	if name == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("target name too long (max 64 characters)")
	}
	if !targetNameRegex.MatchString(name) {
		return fmt.Errorf("target name must contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidateUnixUser validates a Unix username
func ValidateUnixUser(user string) error {
	if user == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(user) > 32 {
		return fmt.Errorf("username too long (max 32 characters)")
	}
	if !unixUserRegex.MatchString(user) {
		return fmt.Errorf("username must start with a lowercase letter or underscore, followed by lowercase letters, numbers, underscores, or hyphens")
	}
	return nil
}

// ValidateFeature validates a feature flag name
func ValidateFeature(feature string) error {
	if feature == "" {
		return fmt.Errorf("feature cannot be empty")
	}
	if !featureRegex.MatchString(feature) {
		return fmt.Errorf("feature %q must contain only lowercase letters, numbers, dots, underscores, and hyphens", feature)
	}
	return nil
}

// ValidateRemotePath validates an absolute file path on the device
func ValidateRemotePath(p string) error {
	if p == "" {
		return fmt.Errorf("remote path cannot be empty")
	}
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("remote path must be absolute: %s", p)
	}
	if strings.Contains(p, "..") {
		return fmt.Errorf("remote path cannot contain path traversal (..): %s", p)
	}
	if !remotePathRegex.MatchString(p) {
		return fmt.Errorf("remote path contains invalid characters: %s", p)
	}
	if path.Base(p) == "/" || strings.HasSuffix(p, "/") {
		return fmt.Errorf("remote path must name a file: %s", p)
	}
	return nil
}

// ShellEscape escapes a string for safe use in shell commands by wrapping it
// in single quotes and escaping any internal single quotes using the POSIX
// pattern: ' → '\''
func ShellEscape(s string) string {
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// SanitizeCommandForLog masks sensitive values in commands before logging
func SanitizeCommandForLog(cmd string) string {
	result := cmd

	for _, pattern := range sensitiveLogPatterns {
		searchFrom := 0
		for {
			idx := strings.Index(result[searchFrom:], pattern)
			if idx == -1 {
				break
			}
			valueStart := searchFrom + idx + len(pattern)
			valueEnd := findValueEnd(result, valueStart)
			masked := "****"
			result = result[:valueStart] + masked + result[valueEnd:]
			searchFrom = valueStart + len(masked)
		}
	}

	return result
}

// findValueEnd finds where a shell value ends (handles quoted and unquoted values)
func findValueEnd(s string, start int) int {
	if start >= len(s) {
		return start
	}

	if s[start] == '\'' || s[start] == '"' {
		end := strings.IndexByte(s[start+1:], s[start])
		if end == -1 {
			return len(s)
		}
		return start + end + 2
	}

	for i := start; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' {
			return i
		}
	}
	return len(s)
}
