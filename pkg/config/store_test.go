package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		store, err := NewFileStore("")
		require.NoError(t, err)

		homeDir, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(homeDir, ".suzzy", "config.json"), store.Path())
	})

	t.Run("missing file is an empty config", func(t *testing.T) {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
		require.NoError(t, err)

		section, err := store.GetSection(SectionIDCredential)
		require.NoError(t, err)
		assert.Empty(t, section)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{invalid json}"), 0600))

		_, err := NewFileStore(path)
		assert.Error(t, err)
	})
}

func TestFileStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			store, err := NewFileStore(path)
			require.NoError(t, err)
			require.NoError(t, store.SetSection(SectionIDCredential, map[string]interface{}{CredentialKey: "gsk_abc"}))
			require.NoError(t, store.SetSection(SectionIDBrowser, map[string]interface{}{"driver": "static", "headless": true}))
			require.NoError(t, store.Save())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

			reloaded, err := NewFileStore(path)
			require.NoError(t, err)

			cred, err := reloaded.GetSection(SectionIDCredential)
			require.NoError(t, err)
			assert.Equal(t, "gsk_abc", cred[CredentialKey])

			browser, err := reloaded.GetSection(SectionIDBrowser)
			require.NoError(t, err)
			assert.Equal(t, "static", browser["driver"])
			assert.Equal(t, true, browser["headless"])
		})
	}
}

func TestFileStore_EmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	section, err := store.GetSection(SectionIDLLM)
	require.NoError(t, err)
	assert.Empty(t, section)
}

func TestFileStore_Copies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	input := map[string]interface{}{"model": "llama3-8b-8192"}
	require.NoError(t, store.SetSection(SectionIDLLM, input))
	input["model"] = "changed"

	got, err := store.GetSection(SectionIDLLM)
	require.NoError(t, err)
	assert.Equal(t, "llama3-8b-8192", got["model"])

	got["model"] = "changed again"
	again, err := store.GetSection(SectionIDLLM)
	require.NoError(t, err)
	assert.Equal(t, "llama3-8b-8192", again["model"])
}
