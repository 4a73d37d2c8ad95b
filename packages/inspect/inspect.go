// Package inspect extracts values from and validates the decoded body of
// a relay Result.
package inspect

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// document returns the JSON text of a Result's body: the re-encoded data
// when the body decoded as JSON, otherwise the text if it happens to be
// valid JSON.
func document(res relay.Result) ([]byte, bool) {
	if res.HasData() {
		b, err := json.Marshal(res.Data)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	if res.HasText() && gjson.Valid(*res.Text) {
		return []byte(*res.Text), true
	}
	return nil, false
}

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

// Query evaluates a gjson path against the Result body. An empty path (or
// "data") yields the whole body. The second return is false when the body
// is not JSON or the path does not exist.
func Query(res relay.Result, path string) (any, bool) {
	doc, ok := document(res)
	if !ok {
		return nil, false
	}

	path = strings.TrimSpace(path)
	if path == "data" {
		path = ""
	} else if strings.HasPrefix(path, "data.") || strings.HasPrefix(path, "data[") {
		path = strings.TrimPrefix(path, "data")
	}
	path = convertBracketNotation(path)
	if path == "" {
		return gjson.ParseBytes(doc).Value(), true
	}

	result := gjson.GetBytes(doc, path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// ValidateSchema validates the Result body against a JSON Schema. It
// returns the list of violations, empty when the body conforms.
func ValidateSchema(res relay.Result, schema []byte) ([]string, error) {
	doc, ok := document(res)
	if !ok {
		return nil, fmt.Errorf("response body is not JSON")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
