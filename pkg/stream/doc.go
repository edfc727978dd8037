/*
Package stream implements the realtime device-state fan-out layer: the
connection registry, the per-connection heartbeats, and the shared broadcast
timer.

# Architecture

One shared timer serves every connected client; the only per-connection
background work is a heartbeat:

	┌───────────────────────────────────────────────────────────┐
	│                     Broadcaster                           │
	│                  (one shared timer)                       │
	│                                                           │
	│  Every tick:                                              │
	│   1. registry empty?  → stop self, back to idle           │
	│   2. fetch snapshot   → on error: log, skip, retry next   │
	│   3. registry.Broadcast({type:"update", data, timestamp}) │
	└──────────────────────────┬────────────────────────────────┘
	                           │
	           ┌───────────────▼───────────────┐
	           │           Registry            │
	           │   channel → heartbeat timer   │
	           └───┬───────────┬───────────┬───┘
	               │           │           │
	            client A    client B    client C

The broadcaster is started lazily through the registry's wake hook on the
first Register and cancels itself when a tick finds the registry empty, so the
"timer running iff at least one client connected" invariant holds without any
outside supervisor.

# Failure Handling

Broadcast serializes each frame once and writes it to every channel. A failed
write marks that channel dead; delivery to the remaining channels continues,
and dead channels are unregistered after the loop. Heartbeat write failures
take the same unregister path. A snapshot fetch failure skips the tick and is
retried on the next one; clients keep their connection and heartbeats while
the data is stale.

# Ownership

The registry exclusively owns each channel's heartbeat timer. Unregister is
the single teardown path: it cancels the timer and removes the channel, and it
tolerates double calls, because an aborting client can race a failed write.
*/
package stream
