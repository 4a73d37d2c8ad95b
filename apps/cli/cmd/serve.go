package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fetchagent/packages/core/config"
	"github.com/abdul-hamid-achik/fetchagent/packages/logging"
	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
	"github.com/abdul-hamid-achik/fetchagent/packages/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API exposing /api/agent",
	Long: `Run the HTTP API. POST a request description to /api/agent, or
GET /api/agent?url=..., and receive the normalized result as JSON.

Examples:
  fetchagent serve
  fetchagent serve --listen 127.0.0.1:9000 --log-format json
  curl -s localhost:8080/api/agent -d '{"url":"https://example.com"}'`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

var (
	serveListenFlag    string
	serveConfigFlag    string
	serveLogLevelFlag  string
	serveLogFormatFlag string
)

func init() {
	serveCmd.Flags().StringVar(&serveListenFlag, "listen", getEnvString("FETCHAGENT_LISTEN", ""), "Address to listen on (default :8080) (env: FETCHAGENT_LISTEN)")
	serveCmd.Flags().StringVar(&serveConfigFlag, "config", getEnvString("FETCHAGENT_CONFIG", ""), "Path to config file (env: FETCHAGENT_CONFIG)")
	serveCmd.Flags().StringVar(&serveLogLevelFlag, "log-level", getEnvString("FETCHAGENT_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: FETCHAGENT_LOG_LEVEL)")
	serveCmd.Flags().StringVar(&serveLogFormatFlag, "log-format", getEnvString("FETCHAGENT_LOG_FORMAT", ""), "Log format: text, json (env: FETCHAGENT_LOG_FORMAT)")

	_ = serveCmd.RegisterFlagCompletionFunc("log-level", fixedCompletion("debug", "info", "warn", "error"))
	_ = serveCmd.RegisterFlagCompletionFunc("log-format", fixedCompletion("text", "json"))
	_ = serveCmd.MarkFlagFilename("config", "yaml", "yml", "json")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(serveConfigFlag)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("load config: %w", err))
	}
	cfg := fileConfig.Merge(&config.Config{
		Listen:    serveListenFlag,
		LogLevel:  serveLogLevelFlag,
		LogFormat: serveLogFormatFlag,
	})

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	logger := logging.New(logging.WithLevel(level), logging.WithFormat(format))

	r := relay.New(append(cfg.RelayOptions(), relay.WithLogger(logger))...)
	srv := server.New(r, server.WithAddr(cfg.Listen), server.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return withExitCode(ExitNetworkError, fmt.Errorf("server: %w", err))
	}
	return nil
}
