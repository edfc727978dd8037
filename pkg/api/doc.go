/*
Package api provides the HTTP surface of the realtime fan-out service.

# Endpoints

	GET /api/realtime/stream    SSE stream of device telemetry
	GET /api/realtime/devices   one-shot filtered/paginated device listing
	GET /api/realtime/snapshot  one-shot faculty-grouped nested snapshot
	GET /api/realtime/status    stream-layer status (connections, timer state)
	GET /health                 liveness
	GET /ready                  readiness (database ping)
	GET /metrics                Prometheus metrics

# The SSE Stream

Each stream connection receives, in order: one "initial" frame with a fresh
snapshot sent to that client alone, then "update" frames from the shared
broadcast cycle, with "heartbeat" frames interleaved on their own period. One
JSON object per data: line:

	data: {"type":"initial","data":[...],"timestamp":"..."}
	data: {"type":"update","data":[...],"timestamp":"..."}
	data: {"type":"heartbeat","connections":3,"timestamp":"..."}

Responses carry text/event-stream, no-cache, keep-alive, and allow all origins.
The stream endpoint is deliberately left unauthenticated: the telemetry it
carries is aggregate meter data already shown on public dashboards, and the
surrounding deployment terminates at a campus reverse proxy. Revisit before
exposing the port directly.

A per-client-IP token bucket limits new stream connections; established
streams are unaffected.

# Failure Behavior

Snapshot queries that fail degrade to a well-formed empty payload with
success=false; the HTTP status stays 200 and no raw error ever reaches a
client. A mid-stream write failure silently drops that one connection; the
client's EventSource reconnects and starts over with a fresh initial frame.

Query parameters are never rejected: malformed limit/offset/filters fall back
to defaults, prioritizing availability over strictness.
*/
package api
