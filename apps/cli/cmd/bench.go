package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fetchagent/packages/bench"
)

var benchCmd = &cobra.Command{
	Use:   "bench [url]",
	Short: "Repeat one request and report latency and consistency",
	Long: `Issue the same request many times and summarize latency percentiles,
outcomes and how many results differed from the first one.

Examples:
  fetchagent bench https://api.example.com/health --count 200 --concurrency 10
  fetchagent bench -f request.yaml --count 100 --rate 20
  fetchagent bench https://api.example.com/health --remote http://localhost:8080 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: benchCommand,
}

var (
	benchRequest requestFlags

	benchCountFlag       int
	benchConcurrencyFlag int
	benchRateFlag        float64
	benchJSONFlag        bool
	benchNoProgressFlag  bool
	benchNoColorFlag     bool
)

func init() {
	benchRequest.register(benchCmd)

	benchCmd.Flags().IntVarP(&benchCountFlag, "count", "n", getEnvInt("FETCHAGENT_BENCH_COUNT", 10), "Number of calls (env: FETCHAGENT_BENCH_COUNT)")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", getEnvInt("FETCHAGENT_BENCH_CONCURRENCY", 1), "Concurrent calls (env: FETCHAGENT_BENCH_CONCURRENCY)")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", getEnvFloat("FETCHAGENT_BENCH_RATE", 0), "Calls per second, 0 for unlimited (env: FETCHAGENT_BENCH_RATE)")
	benchCmd.Flags().BoolVar(&benchJSONFlag, "json", false, "Output the summary as JSON")
	benchCmd.Flags().BoolVar(&benchNoProgressFlag, "no-progress", false, "Disable the progress counter")
	benchCmd.Flags().BoolVar(&benchNoColorFlag, "no-color", getEnvBool("FETCHAGENT_NO_COLOR", false), "Disable colored output (env: FETCHAGENT_NO_COLOR)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := benchRequest.loadConfig()
	if err != nil {
		return err
	}

	desc, err := benchRequest.describe(args)
	if err != nil {
		return err
	}

	var opts []bench.Option
	if !benchJSONFlag && !benchNoProgressFlag {
		opts = append(opts, bench.WithProgress(func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r  %d/%d calls", done, total)
		}))
	}

	runner, err := bench.NewRunner(&bench.Config{
		Count:       benchCountFlag,
		Concurrency: benchConcurrencyFlag,
		Rate:        benchRateFlag,
	}, benchRequest.newExecutor(cfg, benchRequest.logger(cfg)), opts...)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := runner.Run(ctx, desc)
	if !benchJSONFlag && !benchNoProgressFlag {
		fmt.Fprintln(os.Stderr)
	}

	reporter := bench.NewReporter(cmd.OutOrStdout(), benchNoColorFlag || cfg.GetNoColor())
	if benchJSONFlag {
		if err := reporter.PrintJSON(summary); err != nil {
			return withExitCode(ExitUsageError, err)
		}
	} else {
		reporter.PrintSummary(summary)
	}

	if summary.Failed > 0 {
		return withExitCode(ExitRelayFailure, nil)
	}
	return nil
}
