// Package server exposes test plan generation and checking over HTTP.
//
// # Routes
//
//   - POST /api/v1/plans/generate            Selection JSON to document, filename and line numbers
//   - POST /api/v1/documents/lint            raw text to syntax diagnostics
//   - POST /api/v1/documents/validate        raw text to a full check report
//   - POST /api/v1/documents/compatibility   raw text to matching catalog machines
//   - POST /api/v1/configurations/validate   {"yamlData": {...}} to success and located error
//   - GET  /api/v1/catalog/machines
//   - GET  /api/v1/catalog/test-cases
//   - GET  /health, /ready, /version, /metrics
//
// Documents posted to /documents/validate may be named with ?name=, which is
// recorded in logs and check history.
//
// # Middleware Chain
//
// Requests pass through, outermost first: panic recovery, request id
// (X-Request-ID, generated as a UUID when absent), logging and HTTP
// metrics, the per-client rate limit, and a tracing span.
//
// With server.rate_limit.requests_per_second set, each client address gets
// a token bucket over the /api/v1/ routes. Exhausted clients receive 429
// with a Retry-After header.
//
// Failed requests answer with {"error": kind, "message": text}. A document
// that fails its checks is not a failed request: the verdict is in the 200
// response.
package server
