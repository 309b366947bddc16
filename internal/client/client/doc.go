// Package client is the journal's network client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) used by the
//     auth and AI services: PostJSON and GetJSON against the journal backend.
//  2. An HTTP implementation (see HTTPClient) that keeps the session cookie in
//     an in-memory jar, applies a per-request timeout and retries transport
//     failures and 5xx answers with exponential backoff.
//
// # Error Handling
//
// Transport failures that survive all retries are reported as ErrUnavailable.
// A completed exchange is always returned as a *Response; callers turn a
// non-OK response into an *APIError with (*Response).Err.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
