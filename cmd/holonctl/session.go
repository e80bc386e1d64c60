package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/evomimic/holonengine/internal/wire"
)

// loadSession reads a previously saved SessionStateWire from path, returning
// nil (a fresh session) if the file does not exist yet — mirroring the
// teacher's join-token-on-disk pattern of cmd/warren for local CLI state.
func loadSession(path string) (*wire.SessionStateWire, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var state wire.SessionStateWire
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &state, nil
}

// saveSession persists state to path so the next holonctl invocation can
// resume the same transaction's staged/transient pools.
func saveSession(path string, state *wire.SessionStateWire) error {
	if state == nil {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
