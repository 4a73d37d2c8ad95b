// Package relay executes a single caller-described HTTP request and
// reports the outcome as one normalized Result.
//
// It wraps the standard library's http package with:
//   - A per-call deadline that cancels the in-flight request
//   - Redirect following
//   - Header normalization for loosely typed input
//   - Content-type driven body decoding (JSON, text)
//   - Failure classification (BadRequest, Timeout, FetchError)
//
// Execute never returns an error and never panics; every outcome is
// encoded in the Result.
package relay
