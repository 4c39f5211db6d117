// Package core provides the foundational domain types and interfaces used by
// fetchmesh. It defines the core abstractions for:
//
//   - Extensions (caller supplied objects opting in to lifecycle hooks)
//   - Transmitters (the host primitive that performs network I/O)
//   - Events (the occurrence that triggered a fetch, optionally carrying a
//     navigation preload response)
//   - FetchContext (the ephemeral per-invocation bundle)
//   - TaggedError (structured failures identified by a stable code)
//
// Requests and responses are plain *http.Request and *http.Response values.
// Their bodies are single-read streams, so every stage that needs a value
// more than once calls DuplicateRequest or DuplicateResponse before the first
// read.
//
// The package keeps orchestration out of scope; the engine package drives the
// pipeline and the extension package filters extensions by capability.
package core
