/*
Package types defines the core data structures used throughout Voltstream.

This package contains the fundamental types that represent the realtime
telemetry model: device snapshots, SSE wire frames, and the response envelopes
of the snapshot query endpoints. It is imported by all other packages and
carries no behavior beyond construction helpers.

# Core Types

Telemetry:
  - DeviceSnapshot: one device's latest known readings plus descriptive labels
  - NetworkStatus: online, offline, error

Wire format:
  - Frame: one SSE message (initial, update, or heartbeat)
  - FrameType: frame discriminator

Query results:
  - SnapshotResult, SnapshotResponse: one-shot devices endpoint payload
  - SnapshotStats: aggregate counts over a (filtered) snapshot
  - Pagination: limit/offset window metadata

# Nullability

Telemetry and descriptive fields use pointer types. A nil pointer means the
value was never reported or does not apply to the device; it is never
interchangeable with a zero reading. JSON serialization keeps the null so
dashboard clients can tell "no reading" from "reads exactly 0".
*/
package types
