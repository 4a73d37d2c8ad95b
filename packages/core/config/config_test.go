package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20000, cfg.Timeout)
	assert.Equal(t, 20*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetNoColor())
	assert.Equal(t, ":8080", cfg.Listen)
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".fetchagent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "timeout": 5000,
  "validateSSL": false,
  "headers": {"User-Agent": "fetchagent"},
  "listen": "127.0.0.1:9000"
}`), 0644))

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, "fetchagent", cfg.Headers["User-Agent"])
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	// untouched fields keep their defaults
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, "console", cfg.Output)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".fetchagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`timeout: 1500
maxRedirects: 3
proxy: http://proxy.local:3128
logLevel: debug
output: json
noColor: true
`), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, "http://proxy.local:3128", cfg.Proxy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.GetNoColor())
	assert.False(t, cfg.IsDefault())
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"timeout": "soon"}`), 0644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.json")
	require.NoError(t, os.WriteFile(negative, []byte(`{"timeout": -1}`), 0644))
	_, err = LoadConfig(negative)
	assert.ErrorContains(t, err, "timeout must not be negative")

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "base", "B": "base"}

	merged := base.Merge(&Config{
		Timeout:     800,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "override"},
		Output:      "json",
	})

	assert.Equal(t, 800, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.Equal(t, map[string]string{"A": "base", "B": "override"}, merged.Headers)
	assert.Equal(t, "json", merged.Output)
	assert.Equal(t, 10, merged.MaxRedirects)

	// the receiver is unchanged
	assert.Equal(t, "base", base.Headers["B"])
	assert.Equal(t, 20000, base.Timeout)
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Timeout = 1234
	cfg.Headers = map[string]string{"X-Test": "1"}

	for _, name := range []string{"out.json", "out.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveConfig(path))

		loaded, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 1234, loaded.Timeout)
		assert.Equal(t, "1", loaded.Headers["X-Test"])
	}
}

func TestRelayOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.RelayOptions(), 3)

	cfg.Proxy = "http://proxy.local"
	cfg.Headers = map[string]string{"A": "1"}
	assert.Len(t, cfg.RelayOptions(), 5)
}
