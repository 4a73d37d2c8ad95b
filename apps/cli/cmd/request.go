package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fetchagent/packages/client"
	"github.com/abdul-hamid-achik/fetchagent/packages/core/config"
	"github.com/abdul-hamid-achik/fetchagent/packages/core/env"
	"github.com/abdul-hamid-achik/fetchagent/packages/logging"
	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
	"github.com/abdul-hamid-achik/fetchagent/packages/reqfile"
)

// executor is satisfied by both a local *relay.Relay and a remote *client.Client
type executor interface {
	Execute(ctx context.Context, desc relay.Description) relay.Result
}

// requestFlags are shared by every command that issues a request
type requestFlags struct {
	method   string
	headers  []string
	data     string
	timeout  string
	file     string
	curl     string
	vars     []string
	envFile  string
	remote   string
	config   string
	insecure bool
	proxy    string
	verbose  int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.method, "method", "X", "", "HTTP method (default GET, or the method in --request)")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `Request header as "Name: value" (repeatable)`)
	flags.StringVarP(&f.data, "data", "d", "", "Request body (ignored for GET and HEAD)")
	flags.StringVar(&f.timeout, "timeout", getEnvString("FETCHAGENT_TIMEOUT", ""), "Request deadline, e.g. 5s or 500ms (env: FETCHAGENT_TIMEOUT)")
	flags.StringVarP(&f.file, "request", "f", "", "Read the request description from a JSON, YAML or .curl file")
	flags.StringVar(&f.curl, "curl", "", "Build the request from a curl command line")
	flags.StringArrayVar(&f.vars, "var", nil, "Set a {{name}} placeholder as name=value (repeatable)")
	flags.StringVar(&f.envFile, "env-file", getEnvString("FETCHAGENT_ENV_FILE", ""), "Read {{name}} placeholders from a .env file (env: FETCHAGENT_ENV_FILE)")
	flags.StringVar(&f.remote, "remote", getEnvString("FETCHAGENT_REMOTE", ""), "Base URL of a fetchagent server to relay through (env: FETCHAGENT_REMOTE)")
	flags.StringVar(&f.config, "config", getEnvString("FETCHAGENT_CONFIG", ""), "Path to config file (env: FETCHAGENT_CONFIG)")
	flags.BoolVarP(&f.insecure, "insecure", "k", getEnvBool("FETCHAGENT_INSECURE", false), "Disable SSL certificate validation (env: FETCHAGENT_INSECURE)")
	flags.StringVar(&f.proxy, "proxy", getEnvString("FETCHAGENT_PROXY", ""), "Proxy URL for outbound requests (env: FETCHAGENT_PROXY)")
	flags.CountVarP(&f.verbose, "verbose", "v", "Verbose output (-v shows headers, -vv adds debug logs)")

	registerRequestCompletions(cmd)
}

// loadConfig reads the config file and applies the network flags on top
func (f *requestFlags) loadConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(f.config)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("load config: %w", err))
	}

	overrides := &config.Config{Proxy: f.proxy}
	if f.insecure {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	return fileConfig.Merge(overrides), nil
}

// describe builds the Description from the positional url, --request and
// the request flags. Flags win over values read from the file.
func (f *requestFlags) describe(args []string) (relay.Description, error) {
	var desc relay.Description

	switch {
	case f.file != "" && f.curl != "":
		return desc, withExitCode(ExitUsageError, fmt.Errorf("--request and --curl cannot be combined"))
	case f.file != "":
		loaded, err := reqfile.Load(f.file)
		if err != nil {
			return desc, withExitCode(ExitUsageError, err)
		}
		desc = loaded
	case f.curl != "":
		parsed, err := reqfile.FromCurl(f.curl)
		if err != nil {
			return desc, withExitCode(ExitUsageError, err)
		}
		desc = parsed
	}

	if len(args) > 0 {
		desc.URL = args[0]
	}
	if desc.URL == "" {
		return desc, withExitCode(ExitUsageError, fmt.Errorf("a url argument, --request file or --curl command is required"))
	}

	if f.method != "" {
		desc.Method = strings.ToUpper(f.method)
	}
	if desc.Method == "" {
		desc.Method = relay.DefaultMethod
	}

	for _, h := range f.headers {
		name, value, err := parseHeader(h)
		if err != nil {
			return desc, withExitCode(ExitUsageError, err)
		}
		desc = desc.WithHeader(name, value)
	}

	if f.data != "" {
		desc = desc.WithBody(f.data)
	}

	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil || d <= 0 {
			return desc, withExitCode(ExitUsageError, fmt.Errorf("invalid timeout value %q (use format like 5s, 1m, 500ms)", f.timeout))
		}
		desc = desc.WithTimeout(d)
	}

	resolver, err := f.resolver()
	if err != nil {
		return desc, withExitCode(ExitUsageError, err)
	}
	desc, err = resolver.ResolveDescription(desc)
	if err != nil {
		return desc, withExitCode(ExitUsageError, err)
	}

	return desc, nil
}

// resolver expands placeholders from --env-file, then --var
func (f *requestFlags) resolver() (*env.Resolver, error) {
	var opts []env.Option
	if f.envFile != "" {
		fileVars, err := env.LoadDotEnv(f.envFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, env.WithVariables(fileVars))
	}
	vars, err := env.ParseVariables(f.vars)
	if err != nil {
		return nil, err
	}
	opts = append(opts, env.WithVariables(vars))
	return env.NewResolver(opts...), nil
}

// newExecutor returns a remote client when --remote is set, a local relay otherwise
func (f *requestFlags) newExecutor(cfg *config.Config, logger *slog.Logger) executor {
	if f.remote != "" {
		return client.New(f.remote, client.WithLogger(logger))
	}
	opts := append(cfg.RelayOptions(), relay.WithLogger(logger))
	return relay.New(opts...)
}

func (f *requestFlags) logger(cfg *config.Config) *slog.Logger {
	if f.verbose < 2 {
		return logging.Discard()
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		format = logging.FormatText
	}
	return logging.New(logging.WithLevel(slog.LevelDebug), logging.WithFormat(format))
}

// parseHeader splits "Name: value"
func parseHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid header %q (use \"Name: value\")", s)
	}
	return name, strings.TrimSpace(value), nil
}
