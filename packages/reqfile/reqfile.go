// Package reqfile loads request descriptions from JSON or YAML files.
package reqfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

// Load reads a request description file. Files ending in .yaml or .yml are
// parsed as YAML, .curl files as a curl command line, everything else as
// JSON. Field values are coerced the same way the API server coerces
// request payloads.
func Load(path string) (relay.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return relay.Description{}, err
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes raw file contents; ext selects the format.
func Parse(data []byte, ext string) (relay.Description, error) {
	raw := make(map[string]any)

	var err error
	switch strings.ToLower(ext) {
	case ".curl":
		return FromCurl(string(data))
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return relay.Description{}, fmt.Errorf("parse request file: %w", err)
	}

	return relay.DescriptionFromPayload(raw), nil
}

// IsRequestFile reports whether path has an extension Load understands
func IsRequestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".curl":
		return true
	}
	return false
}
