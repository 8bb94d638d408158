// Package ubus calls methods on the OpenWrt ubus object bus through a
// command transport and decodes the JSON replies.
package ubus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yoanbernabeu/wrtprobe/internal/security"
	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// Command builds the ubus CLI invocation for object.method with params
func Command(object, method string, params map[string]any) (string, error) {
	if object == "" || method == "" {
		return "", fmt.Errorf("ubus object and method are required")
	}
	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode ubus params: %w", err)
	}
	return fmt.Sprintf("ubus call %s %s %s",
		security.ShellEscape(object), security.ShellEscape(method), security.ShellEscape(string(payload))), nil
}

// Call invokes object.method on the device and returns the decoded reply
func Call(ctx context.Context, exec transport.Executor, object, method string, params map[string]any) (map[string]any, error) {
	command, err := Command(object, method, params)
	if err != nil {
		return nil, err
	}

	result, err := exec.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("ubus call %s %s: %w", object, method, err)
	}
	if !result.Success() {
		msg := result.ErrorOutput()
		if msg == "" {
			msg = result.Output()
		}
		return nil, fmt.Errorf("ubus call %s %s failed (exit %d): %s", object, method, result.ExitCode, msg)
	}

	out := strings.TrimSpace(result.Output())
	if out == "" {
		// Methods without a reply print nothing
		return map[string]any{}, nil
	}

	var reply map[string]any
	if err := json.Unmarshal([]byte(out), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse ubus reply for %s %s: %w", object, method, err)
	}
	return reply, nil
}

// Lookup walks a dotted path such as "release.distribution" through nested
// objects of a reply
func Lookup(reply map[string]any, path string) (any, bool) {
	var cur any = reply
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup for string leaves
func LookupString(reply map[string]any, path string) (string, bool) {
	v, ok := Lookup(reply, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
