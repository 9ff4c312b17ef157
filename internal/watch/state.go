package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"PremiumSentinel/internal/model"
)

// State is the persisted record of the last observed color per subject.
type State struct {
	Strategy  model.Strategy         `json:"strategy"`
	Colors    map[string]model.Color `json:"colors"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// LoadState reads the state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Colors: map[string]model.Color{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse watch state %s: %w", filePath, err)
	}
	if state.Colors == nil {
		state.Colors = map[string]model.Color{}
	}
	return &state, nil
}

// SaveState writes the state to a JSON file, creating its directory.
func SaveState(filePath string, state *State, now time.Time) error {
	state.UpdatedAt = now
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
