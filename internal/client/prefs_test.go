package client_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedskywalker/four-in-a-row/internal/client"
)

func TestLoadPrefsMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	p, err := client.LoadPrefs(path)
	require.NoError(t, err)
	assert.Equal(t, client.DefaultPrefs(), p)
}

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	saved := client.Prefs{Sound: false, Vibration: true}
	require.NoError(t, saved.Save(path))

	loaded, err := client.LoadPrefs(path)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestLoadPrefsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	p, err := client.LoadPrefs(path)
	assert.Error(t, err)
	assert.Equal(t, client.DefaultPrefs(), p)
}
