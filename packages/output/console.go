package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

// Formatter renders relay results and errors
type Formatter interface {
	FormatResult(res relay.Result) error
	FormatValue(v any) error
	FormatViolations(violations []string)
	FormatError(err error)
}

// New returns the formatter registered under name, defaulting to console
func New(name string, w io.Writer, verbose, noColor bool) Formatter {
	if name == "json" {
		return NewJSONFormatter(JSONWithWriter(w))
	}
	return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor))
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose includes response headers in the output
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(res relay.Result) error {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	outcome := green("Success")
	if !res.OK {
		outcome = red("Error")
	}
	status := color.New(statusAttr(res)).Sprintf("%d %s", res.Status, res.StatusText)
	fmt.Fprintf(f.writer, "%s  %s  %s\n", outcome, status, cyan(fmt.Sprintf("%d ms", res.DurationMs)))

	if f.verbose && len(res.Headers) > 0 {
		fmt.Fprintln(f.writer)
		names := make([]string, 0, len(res.Headers))
		for name := range res.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(f.writer, "%s %s\n", faint(name+":"), res.Headers[name])
		}
	}

	body, err := consoleBody(res)
	if err != nil {
		return err
	}
	if body != "" {
		fmt.Fprintf(f.writer, "\n%s\n", body)
	}
	return nil
}

// statusAttr colours the status line by HTTP class
func statusAttr(res relay.Result) color.Attribute {
	switch {
	case !res.OK, res.IsServerError():
		return color.FgRed
	case res.IsClientError():
		return color.FgYellow
	case res.IsSuccess():
		return color.FgGreen
	}
	return color.FgCyan
}

// consoleBody picks data, then text, then error, the way the result page does
func consoleBody(res relay.Result) (string, error) {
	switch {
	case res.HasData():
		b, err := json.MarshalIndent(res.Data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render data: %w", err)
		}
		return string(b), nil
	case res.TextString() != "":
		return res.TextString(), nil
	default:
		return res.Error, nil
	}
}

// FormatValue prints a single extracted value; strings are printed raw
func (f *ConsoleFormatter) FormatValue(v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(f.writer, s)
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer, string(b))
	return err
}

func (f *ConsoleFormatter) FormatViolations(violations []string) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s\n", red(fmt.Sprintf("Schema: %d violation(s)", len(violations))))
	for _, v := range violations {
		fmt.Fprintf(f.writer, "  %s %s\n", red("→"), v)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
