package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for fetchagent.

Besides subcommands and flag names, the scripts complete HTTP methods for
--method, request files (.json, .yaml, .yml, .curl) for --request, and the
accepted values of --output, --log-level and --log-format.

Examples:
  source <(fetchagent completion bash)
  fetchagent completion zsh > "${fpath[1]}/_fetchagent"
  fetchagent completion fish > ~/.config/fish/completions/fetchagent.fish
  fetchagent completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}

// requestFileExtensions are the formats reqfile.Load understands
var requestFileExtensions = []string{"json", "yaml", "yml", "curl"}

var completionMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// fixedCompletion completes a flag from a closed set of values
func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerRequestCompletions wires value completion for the flags
// requestFlags.register adds.
func registerRequestCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("method", fixedCompletion(completionMethods...))
	_ = cmd.MarkFlagFilename("request", requestFileExtensions...)
	_ = cmd.MarkFlagFilename("env-file")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml", "json")
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
