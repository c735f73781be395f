package store

import (
	"encoding/json"
	"fmt"
)

const settingsPrefix = "settings/"

// Settings keeps non-secret values as plain JSON next to the vault entries.
type Settings struct {
	backend Backend
}

func NewSettings(backend Backend) *Settings {
	return &Settings{backend: backend}
}

// Load decodes the value at key into out. It returns ErrNotFound if key was never saved.
func (s *Settings) Load(key string, out any) error {
	if len(key) == 0 {
		return ErrZeroKey
	}
	raw, err := s.backend.Get(settingsPrefix + key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal setting %s: %w", key, err)
	}
	return nil
}

// Save stores value at key as JSON.
func (s *Settings) Save(key string, value any) error {
	if len(key) == 0 {
		return ErrZeroKey
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	return s.backend.Put(settingsPrefix+key, raw)
}
