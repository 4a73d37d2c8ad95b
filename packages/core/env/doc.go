// Package env expands {{...}} placeholders in request descriptions.
//
// Supported placeholders:
//   - {{$NAME}}: the NAME environment variable
//   - {{name}}: a variable given with --var or read from an env file
//   - {{uuid()}}, {{now()}}, {{timestamp()}}, {{date("2006-01-02")}} and
//     the other functions in funcs.go
//
// Expansion happens once, on the client side, before the request is
// handed to the relay. The API server never expands placeholders.
package env
