package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store)
	assert.Equal(t, 3, cfg.ContextLines)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 60*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 4, cfg.Freshness.Concurrency)
	assert.Equal(t, "/tmp/state/hunkr", cfg.StateDir)
	assert.Equal(t, "127.0.0.1:6880", cfg.Server.Address())
	assert.Empty(t, cfg.Trust.Default)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hunkr"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hunkr", "config.toml"), []byte(`
store = "sqlite"
context_lines = 5

[trust]
default = ["imports:*", "comments:*"]
auto_approve_staged = true

[classifier]
url = "http://localhost:9000"
timeout = "5s"
`), 0o644))
	t.Setenv("HUNKR_CONTEXT_LINES", "8")
	t.Setenv("HUNKR_LOG_LEVEL", "debug")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, 8, cfg.ContextLines)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"imports:*", "comments:*"}, cfg.Trust.Default)
	assert.True(t, cfg.Trust.AutoApproveStaged)
	assert.Equal(t, "http://localhost:9000", cfg.Classifier.URL)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("context", 3, "")
	fs.String("store", "file", "")
	require.NoError(t, fs.Parse([]string{"--context", "10"}))

	v := New()
	require.NoError(t, BindFlags(v, fs, map[string]string{"context_lines": "context", "store": "store"}))
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ContextLines)
	assert.Equal(t, "file", cfg.Store)

	assert.Error(t, BindFlags(v, fs, map[string]string{"x": "nope"}))
}

func TestValidate(t *testing.T) {
	base := Config{Store: "file", StateDir: "/s", Server: ServerConfig{Port: 1}}
	require.NoError(t, base.Validate())

	bad := base
	bad.Store = "redis"
	assert.Error(t, bad.Validate())

	bad = base
	bad.ContextLines = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.StateDir = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.Server.Port = 70000
	assert.Error(t, bad.Validate())
}
