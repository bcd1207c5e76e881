package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "config file should have been created")

	assert.Equal(t, filepath.Join(dir, "nested", DefaultDBName), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "nested", DefaultLogName), cfg.LogPath)
	assert.Equal(t, DefaultRootName, cfg.RootName)
	assert.Equal(t, DefaultIndent, cfg.Indent)
	assert.Equal(t, " ", cfg.Keys.Toggle)
}

func TestLoadOrCreate_ReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	data := `
db_path = "/var/tmp/other.db"
root_name = "Projects"
indent = 1
glyphs = "ascii"

[keys]
quit = "Q"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/tmp/other.db", cfg.DBPath)
	assert.Equal(t, "Projects", cfg.RootName)
	assert.Equal(t, DefaultIndent, cfg.Indent, "indent below 2 falls back to the default")
	assert.Equal(t, "ascii", cfg.Glyphs)
	assert.Equal(t, "Q", cfg.Keys.Quit)
	assert.Equal(t, "a", cfg.Keys.Add, "unset keys keep their defaults")
}

func TestLoadOrCreate_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("db_path = ["), 0o644))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestResolveConfigPath_Env(t *testing.T) {
	t.Setenv("GRUS_CONFIG", "/tmp/grus-test.toml")
	assert.Equal(t, "/tmp/grus-test.toml", ResolveConfigPath())
}
