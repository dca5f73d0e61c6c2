// Package api implements the HTTP inspection API and WebSocket server for
// Tether Core.
//
// This package provides:
//   - REST endpoints for browsing hubs and their registered capabilities
//   - Debug toggling, capability removal, and remote capability invocation
//   - Diagnostic record queries backed by the audit store
//   - WebSocket hub for live diagnostic record streaming
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The server sits beside the capability hubs and exposes their state to
// development tooling (a web dashboard, curl, integration harnesses). It
// never drives application behaviour on its own: remote invocation goes
// through the hub's normal dispatch path, so everything triggered over
// HTTP shows up in the same diagnostic stream as in-process calls.
//
// # Security
//
// The API is a development surface and binds to loopback by default.
// WebSocket connections use single-use signed tickets so credentials never
// appear in URLs that outlive a single connect.
//
// # Graceful Degradation
//
// The server operates without MQTT and without the metrics client. Only
// the diagnostic store is required for the /diagnostics endpoints.
package api
