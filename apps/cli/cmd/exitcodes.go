package cmd

// Exit codes for the fetchagent CLI
const (
	// ExitSuccess indicates the exchange completed
	ExitSuccess = 0

	// ExitRelayFailure indicates the result had ok=false (Timeout, FetchError, BadRequest)
	ExitRelayFailure = 1

	// ExitSchemaFailure indicates the response did not match --schema
	ExitSchemaFailure = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates the remote fetchagent server could not be reached
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
