package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/voltstream/voltstream/pkg/log"
	"github.com/voltstream/voltstream/pkg/metrics"
	"github.com/voltstream/voltstream/pkg/types"
)

// Broadcaster is the single shared timer that, while at least one channel is
// registered, periodically fetches a fresh snapshot and fans it out. It starts
// on the first Register via the registry's wake hook and stops itself when a
// tick observes an empty registry. At most one timer runs process-wide.
type Broadcaster struct {
	registry     *Registry
	source       SnapshotSource
	interval     time.Duration
	fetchTimeout time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}

	logger zerolog.Logger
}

// NewBroadcaster creates an idle broadcaster. Call EnsureRunning (usually via
// Registry.OnRegister) to start it.
func NewBroadcaster(registry *Registry, source SnapshotSource, interval, fetchTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		registry:     registry,
		source:       source,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		logger:       log.WithComponent("broadcaster"),
	}
}

// EnsureRunning starts the shared timer if it is not already running
func (b *Broadcaster) EnsureRunning() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.running = true
	b.stop = make(chan struct{})
	metrics.BroadcasterRunning.Set(1)
	b.logger.Info().Dur("interval", b.interval).Msg("started periodic updates")
	go b.run(b.stop)
}

// Running reports whether the shared timer is active
func (b *Broadcaster) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Stop halts the timer if running; used on process shutdown
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false
	close(b.stop)
	metrics.BroadcasterRunning.Set(0)
}

func (b *Broadcaster) run(stop chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// The empty check and the state flip happen under the same lock
			// EnsureRunning takes. Register adds the channel before invoking
			// the wake hook, so a client connecting during this tick either
			// keeps the timer alive here or restarts it through the hook.
			b.mu.Lock()
			if b.registry.Size() == 0 {
				b.running = false
				b.mu.Unlock()
				metrics.BroadcasterRunning.Set(0)
				b.logger.Info().Msg("stopped periodic updates, no active connections")
				return
			}
			b.mu.Unlock()
			b.tick()

		case <-stop:
			return
		}
	}
}

// tick fetches one fresh snapshot and broadcasts it. A fetch failure is
// logged and the tick is skipped; the next tick retries independently.
func (b *Broadcaster) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), b.fetchTimeout)
	defer cancel()

	snapshots, err := b.source.FetchSnapshot(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to fetch snapshot for broadcast")
		return
	}

	b.logger.Debug().Int("devices", len(snapshots)).Int("connections", b.registry.Size()).Msg("broadcasting update")
	b.registry.Broadcast(types.NewFrame(types.FrameUpdate, snapshots))
}
