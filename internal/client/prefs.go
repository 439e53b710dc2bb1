package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Prefs is the persisted user-preference blob. It sits outside the
// game-state contract: two booleans, no invariants.
type Prefs struct {
	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`
}

// DefaultPrefs has all feedback cues enabled.
func DefaultPrefs() Prefs {
	return Prefs{Sound: true, Vibration: true}
}

// DefaultPrefsPath returns the per-user preferences file location.
func DefaultPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "four-in-a-row", "prefs.json"), nil
}

// LoadPrefs reads preferences from path. A missing file yields the defaults.
func LoadPrefs(path string) (Prefs, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPrefs(), nil
	}
	if err != nil {
		return DefaultPrefs(), err
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultPrefs(), err
	}
	return p, nil
}

// Save writes preferences to path, creating parent directories as needed.
func (p Prefs) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
