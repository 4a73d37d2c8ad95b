// Package output renders relay results for the terminal.
//
// Two formatters are provided:
//   - console: status line, timing, optional headers and the body,
//     coloured with fatih/color
//   - json: the Result exactly as the API server returns it
package output
