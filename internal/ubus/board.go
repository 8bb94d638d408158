package ubus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yoanbernabeu/wrtprobe/internal/transport"
)

// BoardInfo is the reply of `ubus call system board`
type BoardInfo struct {
	Kernel     string  `json:"kernel"`
	Hostname   string  `json:"hostname"`
	System     string  `json:"system"`
	Model      string  `json:"model"`
	BoardName  string  `json:"board_name"`
	RootfsType string  `json:"rootfs_type"`
	Release    Release `json:"release"`
}

// Release describes the installed firmware
type Release struct {
	Distribution string `json:"distribution"`
	Version      string `json:"version"`
	Revision     string `json:"revision"`
	Target       string `json:"target"`
	Description  string `json:"description"`
}

// Board queries system.board and decodes it into BoardInfo
func Board(ctx context.Context, exec transport.Executor) (*BoardInfo, error) {
	reply, err := Call(ctx, exec, "system", "board", map[string]any{})
	if err != nil {
		return nil, err
	}
	return DecodeBoard(reply)
}

// DecodeBoard converts a raw system.board reply into BoardInfo
func DecodeBoard(reply map[string]any) (*BoardInfo, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode board reply: %w", err)
	}
	var info BoardInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode board reply: %w", err)
	}
	return &info, nil
}
