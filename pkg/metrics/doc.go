/*
Package metrics exposes Prometheus metrics for the realtime fan-out layer.

All metrics are package-level collectors registered during init and served at
/metrics by the API server. They fall into three groups:

Stream:
  - voltstream_sse_connections_active: registered SSE connections right now
  - voltstream_sse_connections_total: connections accepted since start
  - voltstream_sse_dead_connections_total: connections reaped after failed writes
  - voltstream_sse_frames_sent_total{type}: frames written, by initial/update/heartbeat
  - voltstream_broadcaster_running: 1 while the shared broadcast timer runs

Snapshot store:
  - voltstream_snapshot_fetch_duration_seconds: query latency histogram
  - voltstream_snapshot_fetch_errors_total: failed snapshot queries

API:
  - voltstream_api_requests_total{endpoint,status}: request counts

The dead-connection counter is the one to alert on: a steadily climbing value
under constant client count means clients are being dropped and reconnecting,
usually a proxy buffering SSE responses.
*/
package metrics
