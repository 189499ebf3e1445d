// Package server holds the panel's shared state and its HTTP surface.
//
// # Key Components
//
// ServerContext owns the game server controller, the remote console client,
// the OAuth state tokens, the per-user command cooldown, the command history
// and the authorization policy. Its methods (StartServer, StopServer,
// RestartServer, SendCommand, ReadLogs, CompleteLogin) are the single place
// where metrics, spans, audit records and history entries are produced, so
// the HTTP handlers and the MCP tools behave identically.
//
// NewRouter mounts the JSON API under /api, the login endpoints under /auth,
// the legacy top-level aliases and, optionally, a static frontend. Requests
// pass through request-id, panic recovery, logging/metrics and CORS
// middleware; /api/server routes additionally require a session on the
// allow-list (401 without a session, 403 outside the list).
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed, and
// MetricsServer exposes Prometheus metrics on a dedicated port.
//
// # Error Shape
//
// Panel API failures are {"status": <localized message>, "code": <code>};
// login failures are {"detail": <message>, "code": <code>}. Console failures
// are not HTTP errors: the command endpoint answers 200 with
// "status": "error" and a descriptive response.
package server
