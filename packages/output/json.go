package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

// JSONFormatter writes results as indented JSON documents
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *JSONFormatter) FormatResult(res relay.Result) error {
	return f.encode(res)
}

func (f *JSONFormatter) FormatValue(v any) error {
	return f.encode(v)
}

func (f *JSONFormatter) FormatViolations(violations []string) {
	_ = f.encode(map[string]any{"schemaViolations": violations})
}

func (f *JSONFormatter) FormatError(err error) {
	_ = f.encode(map[string]string{"error": err.Error()})
}
