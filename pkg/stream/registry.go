package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/voltstream/voltstream/pkg/log"
	"github.com/voltstream/voltstream/pkg/metrics"
	"github.com/voltstream/voltstream/pkg/types"
)

// Registry tracks the set of currently open client channels and owns one
// heartbeat timer per channel. The timer is coupled to the channel through the
// registry's map and nothing else: every path that ends a connection goes
// through Unregister, which cancels the timer, so a timer can never outlive
// its channel.
type Registry struct {
	mu                sync.RWMutex
	channels          map[Channel]*heartbeat
	heartbeatInterval time.Duration
	wake              func()
	logger            zerolog.Logger
}

// heartbeat is the per-channel liveness timer
type heartbeat struct {
	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
}

func (hb *heartbeat) cancel() {
	hb.stopOnce.Do(func() {
		hb.ticker.Stop()
		close(hb.stop)
	})
}

// NewRegistry creates an empty registry whose channels receive a heartbeat
// frame on the given interval
func NewRegistry(heartbeatInterval time.Duration) *Registry {
	return &Registry{
		channels:          make(map[Channel]*heartbeat),
		heartbeatInterval: heartbeatInterval,
		logger:            log.WithComponent("registry"),
	}
}

// OnRegister installs a hook invoked after every successful Register. The
// broadcaster's EnsureRunning is wired here so the shared timer starts as soon
// as the first client connects.
func (r *Registry) OnRegister(wake func()) {
	r.wake = wake
}

// Register adds a channel to the active set and starts its heartbeat timer.
// Registering the same channel twice is safe: the prior timer is cancelled
// before a fresh one is attached, so a channel never has two heartbeats.
func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	if prior, ok := r.channels[ch]; ok {
		prior.cancel()
	}
	hb := &heartbeat{
		ticker: time.NewTicker(r.heartbeatInterval),
		stop:   make(chan struct{}),
	}
	r.channels[ch] = hb
	size := len(r.channels)
	r.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(size))
	metrics.ConnectionsTotal.Inc()
	r.logger.Info().Str("connection_id", ch.ID()).Int("connections", size).Msg("client registered")

	go r.runHeartbeat(ch, hb)

	if r.wake != nil {
		r.wake()
	}
}

// Unregister removes a channel and cancels its heartbeat timer. Unregistering
// a channel that is not present is a no-op; disconnect races are expected.
func (r *Registry) Unregister(ch Channel) {
	r.mu.Lock()
	hb, ok := r.channels[ch]
	if ok {
		delete(r.channels, ch)
	}
	size := len(r.channels)
	r.mu.Unlock()

	if !ok {
		return
	}
	hb.cancel()

	metrics.ConnectionsActive.Set(float64(size))
	r.logger.Info().Str("connection_id", ch.ID()).Int("connections", size).Msg("client unregistered")
}

// Size returns the current count of registered channels
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// has reports whether the channel is still registered
func (r *Registry) has(ch Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[ch]
	return ok
}

// Broadcast serializes the frame once and writes it to every registered
// channel. A channel whose write fails is collected and unregistered after the
// loop; one dead client never blocks delivery to the others, and no error
// escapes to the caller.
func (r *Registry) Broadcast(frame types.Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal broadcast frame")
		return
	}

	r.mu.RLock()
	targets := make([]Channel, 0, len(r.channels))
	for ch := range r.channels {
		targets = append(targets, ch)
	}
	r.mu.RUnlock()

	var dead []Channel
	for _, ch := range targets {
		if err := ch.Send(payload); err != nil {
			dead = append(dead, ch)
			continue
		}
		metrics.FramesSent.WithLabelValues(string(frame.Type)).Inc()
	}

	for _, ch := range dead {
		r.Unregister(ch)
	}
	if len(dead) > 0 {
		metrics.DeadConnectionsReaped.Add(float64(len(dead)))
		r.logger.Info().Int("cleaned", len(dead)).Int("connections", r.Size()).Msg("cleaned up dead connections")
	}
}

// runHeartbeat delivers liveness frames to one channel until the channel is
// unregistered. If the channel is found gone when the ticker fires, the timer
// cancels itself.
func (r *Registry) runHeartbeat(ch Channel, hb *heartbeat) {
	for {
		select {
		case <-hb.ticker.C:
			if !r.has(ch) {
				hb.cancel()
				return
			}

			frame := types.Frame{
				Type:        types.FrameHeartbeat,
				Connections: r.Size(),
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				r.logger.Error().Err(err).Msg("failed to marshal heartbeat frame")
				continue
			}

			if err := ch.Send(payload); err != nil {
				r.logger.Debug().Str("connection_id", ch.ID()).Err(err).Msg("heartbeat write failed")
				metrics.DeadConnectionsReaped.Inc()
				r.Unregister(ch)
				return
			}
			metrics.FramesSent.WithLabelValues(string(types.FrameHeartbeat)).Inc()

		case <-hb.stop:
			return
		}
	}
}
