package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fetchagent/packages/inspect"
	"github.com/abdul-hamid-achik/fetchagent/packages/output"
	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Perform one HTTP request and print the result",
	Long: `Perform one HTTP request and print the normalized result.

Examples:
  fetchagent fetch https://api.example.com/users
  fetchagent fetch https://api.example.com/users -X POST -H "Content-Type: application/json" -d '{"name":"ada"}'
  fetchagent fetch -f request.yaml --query data.items.0.id
  fetchagent fetch https://api.example.com/users --schema users.schema.json
  fetchagent fetch https://api.example.com/users --remote http://localhost:8080
  fetchagent fetch -f request.json --watch
  fetchagent fetch --curl "curl -X POST https://api.example.com/users -d name=ada"`,
	Args: cobra.MaximumNArgs(1),
	RunE: fetchCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	fetchRequest requestFlags

	outputFlag  string
	queryFlag   string
	schemaFlag  string
	watchFlag   bool
	noColorFlag bool
)

func init() {
	fetchRequest.register(fetchCmd)

	fetchCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("FETCHAGENT_OUTPUT", ""), "Output format: console, json (env: FETCHAGENT_OUTPUT)")
	fetchCmd.Flags().StringVar(&queryFlag, "query", "", "Print only the value at this path in the decoded body (e.g. data.items.0.id)")
	fetchCmd.Flags().StringVar(&schemaFlag, "schema", "", "Validate the decoded body against a JSON Schema file")
	fetchCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-run when the --request file changes")
	fetchCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("FETCHAGENT_NO_COLOR", false), "Disable colored output (env: FETCHAGENT_NO_COLOR)")

	_ = fetchCmd.RegisterFlagCompletionFunc("output", fixedCompletion("console", "json"))
	_ = fetchCmd.MarkFlagFilename("schema", "json")
}

func fetchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := fetchRequest.loadConfig()
	if err != nil {
		return err
	}

	desc, err := fetchRequest.describe(args)
	if err != nil {
		return err
	}

	var schema []byte
	if schemaFlag != "" {
		schema, err = os.ReadFile(schemaFlag)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("read schema: %w", err))
		}
	}

	if watchFlag && fetchRequest.file == "" {
		return withExitCode(ExitUsageError, fmt.Errorf("--watch needs a --request file to watch"))
	}

	format := outputFlag
	if format == "" {
		format = cfg.Output
	}
	noColor := noColorFlag || cfg.GetNoColor()
	formatter := output.New(strings.ToLower(format), cmd.OutOrStdout(), fetchRequest.verbose > 0, noColor)

	exec := fetchRequest.newExecutor(cfg, fetchRequest.logger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := runFetch(ctx, exec, desc, formatter, queryFlag, schema)
	if !watchFlag {
		return withExitCode(code, nil)
	}

	return watchRequestFile(ctx, cmd.OutOrStdout(), fetchRequest.file, func() {
		next, err := fetchRequest.describe(args)
		if err != nil {
			formatter.FormatError(err)
			return
		}
		runFetch(ctx, exec, next, formatter, queryFlag, schema)
	})
}

// runFetch executes desc, renders the outcome and returns the exit code.
func runFetch(ctx context.Context, exec executor, desc relay.Description, formatter output.Formatter, query string, schema []byte) int {
	res := exec.Execute(ctx, desc)

	if !res.OK {
		if err := formatter.FormatResult(res); err != nil {
			formatter.FormatError(err)
		}
		if res.StatusText == relay.StatusTextNetworkError {
			return ExitNetworkError
		}
		return ExitRelayFailure
	}

	if query != "" {
		value, ok := inspect.Query(res, query)
		if !ok {
			formatter.FormatError(fmt.Errorf("query %q matched nothing", query))
			return ExitRelayFailure
		}
		if err := formatter.FormatValue(value); err != nil {
			formatter.FormatError(err)
			return ExitRelayFailure
		}
	} else if err := formatter.FormatResult(res); err != nil {
		formatter.FormatError(err)
		return ExitRelayFailure
	}

	if schema != nil {
		violations, err := inspect.ValidateSchema(res, schema)
		if err != nil {
			formatter.FormatError(err)
			return ExitSchemaFailure
		}
		if len(violations) > 0 {
			formatter.FormatViolations(violations)
			return ExitSchemaFailure
		}
	}

	return ExitSuccess
}

// watchRequestFile calls rerun after each write to path until ctx is done.
func watchRequestFile(ctx context.Context, w io.Writer, path string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	fmt.Fprintf(w, "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	// The timer only signals; reruns happen on this goroutine, one at a time.
	rerunCh := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerunCh <- struct{}{}:
				default:
				}
			})

		case <-rerunCh:
			fmt.Fprintf(w, "\nFile changed: %s\n\n", path)
			rerun()
			fmt.Fprintf(w, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}
