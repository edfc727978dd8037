/*
Package log provides structured logging for Voltstream using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level for production debugging.

# Usage

Initialize once during startup, then use the package-level helpers or create
child loggers for subsystems:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("broadcaster")
	logger.Info().Int("connections", n).Msg("broadcasting update")

Child loggers attach a fixed field to every entry:

  - WithComponent("stream"): tags a subsystem
  - WithDeviceID("meter-0042"): tags per-device processing
  - WithConnectionID(id): tags one SSE connection's lifecycle

# Output Formats

JSON format (production):

	{"level":"info","component":"stream","time":"2026-08-30T10:30:00Z","message":"client connected"}

Console format (development):

	10:30AM INF client connected component=stream

The global logger is safe for concurrent use from all goroutines.
*/
package log
