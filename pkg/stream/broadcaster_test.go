package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltstream/voltstream/pkg/types"
)

// fakeSource counts fetches and can fail a configurable number of times
type fakeSource struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	snapshots []types.DeviceSnapshot
}

func (s *fakeSource) FetchSnapshot(ctx context.Context) ([]types.DeviceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirst {
		return nil, errors.New("connection refused")
	}
	return s.snapshots, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestBroadcaster(interval time.Duration, source SnapshotSource) (*Registry, *Broadcaster) {
	r := NewRegistry(time.Hour)
	b := NewBroadcaster(r, source, interval, time.Second)
	r.OnRegister(b.EnsureRunning)
	return r, b
}

func TestBroadcasterRunsWhileClientsConnected(t *testing.T) {
	source := &fakeSource{snapshots: []types.DeviceSnapshot{{DeviceID: "dev-1"}}}
	r, b := newTestBroadcaster(15*time.Millisecond, source)

	assert.False(t, b.Running(), "broadcaster starts idle")

	ch := newFakeChannel("a")
	r.Register(ch)
	assert.True(t, b.Running(), "first register wakes the broadcaster")

	require.Eventually(t, func() bool {
		return ch.framesOfType(types.FrameUpdate) >= 2
	}, time.Second, 5*time.Millisecond)

	r.Unregister(ch)
	require.Eventually(t, func() bool {
		return !b.Running()
	}, time.Second, 5*time.Millisecond, "broadcaster halts once the registry drains")
}

func TestBroadcasterStoppedTimerDoesNotFire(t *testing.T) {
	source := &fakeSource{}
	r, b := newTestBroadcaster(10*time.Millisecond, source)

	ch := newFakeChannel("a")
	r.Register(ch)
	r.Unregister(ch)

	require.Eventually(t, func() bool {
		return !b.Running()
	}, time.Second, 5*time.Millisecond)

	settled := source.callCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, source.callCount(), "no fetch after the timer halted")
}

func TestBroadcasterRestartsAfterIdle(t *testing.T) {
	source := &fakeSource{}
	r, b := newTestBroadcaster(10*time.Millisecond, source)

	a := newFakeChannel("a")
	r.Register(a)
	r.Unregister(a)
	require.Eventually(t, func() bool { return !b.Running() }, time.Second, 5*time.Millisecond)

	// A new client after the idle transition restarts the shared timer
	c := newFakeChannel("b")
	r.Register(c)
	assert.True(t, b.Running())

	require.Eventually(t, func() bool {
		return c.framesOfType(types.FrameUpdate) >= 1
	}, time.Second, 5*time.Millisecond)
	r.Unregister(c)
}

func TestBroadcasterEnsureRunningIdempotent(t *testing.T) {
	source := &fakeSource{}
	r, b := newTestBroadcaster(10*time.Millisecond, source)

	ch := newFakeChannel("a")
	r.Register(ch)
	defer r.Unregister(ch)

	b.EnsureRunning()
	b.EnsureRunning()
	assert.True(t, b.Running())

	// A doubled timer would roughly double the fetch rate
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, source.callCount(), 13)
}

func TestBroadcasterSurvivesFetchErrors(t *testing.T) {
	source := &fakeSource{failFirst: 2, snapshots: []types.DeviceSnapshot{{DeviceID: "dev-1"}}}
	r, b := newTestBroadcaster(10*time.Millisecond, source)

	ch := newFakeChannel("a")
	r.Register(ch)
	defer r.Unregister(ch)

	// The first ticks fail; the broadcaster keeps running and later ticks
	// deliver updates once the store recovers.
	require.Eventually(t, func() bool {
		return ch.framesOfType(types.FrameUpdate) >= 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, b.Running())
	assert.GreaterOrEqual(t, source.callCount(), 3)
}

func TestBroadcasterHeartbeatsUnaffectedByFetchErrors(t *testing.T) {
	source := &fakeSource{failFirst: 1 << 30} // store permanently down
	r := NewRegistry(15 * time.Millisecond)
	b := NewBroadcaster(r, source, 10*time.Millisecond, time.Second)
	r.OnRegister(b.EnsureRunning)

	ch := newFakeChannel("a")
	r.Register(ch)
	defer r.Unregister(ch)

	// Heartbeats keep flowing while every snapshot fetch fails
	require.Eventually(t, func() bool {
		return ch.framesOfType(types.FrameHeartbeat) >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, ch.framesOfType(types.FrameUpdate))
	assert.True(t, b.Running())
}

func TestBroadcasterStop(t *testing.T) {
	source := &fakeSource{}
	r, b := newTestBroadcaster(10*time.Millisecond, source)

	ch := newFakeChannel("a")
	r.Register(ch)
	b.Stop()
	assert.False(t, b.Running())

	// Stop on an idle broadcaster is a no-op
	b.Stop()
}
