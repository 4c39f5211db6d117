// Package extensions groups the built-in fetchmesh extensions. Each
// subpackage provides one extension:
//
//   - headers: sets fixed headers on every outgoing request
//   - logger: logs every hook invocation
//   - tracing: one OpenTelemetry client span per fetch
//   - metrics: OpenTelemetry request counter and duration histogram
//
// The failure journal lives in the journal package.
package extensions
