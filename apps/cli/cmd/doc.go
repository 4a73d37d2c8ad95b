// Package cmd implements the fetchagent CLI commands using Cobra.
//
// Available commands:
//   - fetch: Perform one request and print the normalized result
//   - serve: Run the HTTP API exposing /api/agent
//   - bench: Repeat one request and report latency and consistency
//   - version: Show fetchagent version information
//   - completion: Generate shell completion scripts
//
// Flag defaults can be set through FETCHAGENT_* environment variables and
// a .fetchagent.json or .fetchagent.yaml config file.
package cmd
