// Package logging provides a minimal logging interface and adapters for fetchmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine and extensions use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and FetchLogger built on Go's structured logging
//   - ZerologAdapter and LogrusAdapter for hosts already using those stacks
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	e := engine.New(func(o *engine.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
