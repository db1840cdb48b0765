// Package memory persists companion state and interaction memories.
package memory

import (
	"encoding/json"
	"fmt"
	"net/url"

	"kokoro/pkg/persona"
)

// Store is the persistence collaborator for companions.
//
// LoadState returns (nil, nil) when nothing is stored for the identity.
// GetMemories returns the newest memories first; limit <= 0 means all.
type Store interface {
	LoadState(identity string) (*persona.CompanionState, error)
	SaveState(identity string, state persona.CompanionState) error
	AppendMemory(identity string, m persona.InteractionMemory) error
	GetMemories(identity string, limit int) ([]persona.InteractionMemory, error)
	DeleteState(identity string) error
	ListIdentities() ([]string, error)
}

// decodeState parses a serialized state and repairs anything out of range.
func decodeState(data []byte) (*persona.CompanionState, error) {
	var state persona.CompanionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode companion state: %w", err)
	}
	state = state.Normalize()
	return &state, nil
}

// escapeIdentity makes an identity safe for use in keys and file names.
func escapeIdentity(identity string) string {
	return url.QueryEscape(identity)
}

func unescapeIdentity(s string) (string, error) {
	return url.QueryUnescape(s)
}

// truncate keeps at most limit items; limit <= 0 keeps everything.
func truncate(items []persona.InteractionMemory, limit int) []persona.InteractionMemory {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
