package reqfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "create.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "url": "https://api.example.com/users",
  "method": "post",
  "headers": {"Content-Type": "application/json", "X-Retry": 3, "X-Skip": null},
  "body": "{\"name\":\"ada\"}",
  "timeoutMs": 5000
}`), 0644))

	desc, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users", desc.URL)
	assert.Equal(t, "POST", desc.Method)
	assert.Equal(t, map[string]string{"Content-Type": "application/json", "X-Retry": "3"}, desc.Headers)
	require.NotNil(t, desc.Body)
	assert.Equal(t, `{"name":"ada"}`, *desc.Body)
	assert.Equal(t, 5000, desc.TimeoutMs)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "get.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`url: https://pokeapi.co/api/v2/pokemon/1
headers:
  Accept: application/json
  X-Count: 2
timeoutMs: 750
`), 0644))

	desc, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://pokeapi.co/api/v2/pokemon/1", desc.URL)
	assert.Equal(t, "GET", desc.Method)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Count": "2"}, desc.Headers)
	assert.Nil(t, desc.Body)
	assert.Equal(t, 750, desc.TimeoutMs)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{not json`), ".json")
	assert.ErrorContains(t, err, "parse request file")
}

func TestIsRequestFile(t *testing.T) {
	assert.True(t, IsRequestFile("a.json"))
	assert.True(t, IsRequestFile("a.YAML"))
	assert.True(t, IsRequestFile("dir/a.yml"))
	assert.False(t, IsRequestFile("a.http"))
	assert.False(t, IsRequestFile("json"))
}
