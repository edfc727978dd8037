package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/voltstream/voltstream/pkg/metrics"
	"github.com/voltstream/voltstream/pkg/store"
	"github.com/voltstream/voltstream/pkg/types"
)

// errStreamClosed is returned by Send once the handler has torn the
// connection down; callers treat it like any other dead-client write error.
var errStreamClosed = errors.New("stream closed")

// sseChannel adapts one streaming HTTP response to the stream.Channel
// interface. The mutex serializes writes from the broadcaster, the heartbeat,
// and the initial-snapshot send, which also fixes per-channel frame order.
//
// The ResponseWriter is only valid while the handler is running; net/http
// recycles it afterward. The closed flag is flipped before the handler
// returns, so a broadcast or heartbeat goroutine that races the teardown gets
// an error from Send instead of writing into a recycled response.
type sseChannel struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	closed  bool
}

func (c *sseChannel) ID() string { return c.id }

func (c *sseChannel) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errStreamClosed
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// close marks the channel dead. Safe to call more than once.
func (c *sseChannel) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// streamHandler implements the SSE endpoint. Each connection registers one
// channel, receives an immediate initial snapshot, then update frames from the
// shared broadcast cycle plus periodic heartbeats, until the client leaves.
func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ip := getClientIP(r)
	if !s.allowConnect(ip) {
		metrics.APIRequestsTotal.WithLabelValues("stream", "429").Inc()
		http.Error(w, "Too many connection attempts", http.StatusTooManyRequests)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		metrics.APIRequestsTotal.WithLabelValues("stream", "500").Inc()
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := &sseChannel{
		id:      uuid.New().String(),
		w:       w,
		flusher: flusher,
	}
	logger := s.logger.With().Str("connection_id", ch.id).Str("client_ip", ip).Logger()
	logger.Info().Msg("SSE connection established")
	metrics.APIRequestsTotal.WithLabelValues("stream", "200").Inc()

	// The initial snapshot goes to this channel alone, before registration,
	// so it is always the first frame on the wire and a new client does not
	// wait up to one broadcast period for its first data. A fetch failure
	// degrades to an empty initial frame; updates follow once the store
	// recovers.
	snapshots, err := s.store.FetchSnapshot(r.Context(), store.JoinInner)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch initial snapshot")
		snapshots = []types.DeviceSnapshot{}
	}
	payload, err := json.Marshal(types.NewFrame(types.FrameInitial, snapshots))
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal initial frame")
		return
	}
	if err := ch.Send(payload); err != nil {
		return
	}
	metrics.FramesSent.WithLabelValues(string(types.FrameInitial)).Inc()

	// Registering starts the heartbeat and wakes the shared broadcaster
	s.registry.Register(ch)

	// Cleanup must run exactly once no matter which teardown path fires
	// first. The channel is closed before unregistering so no writer caught
	// mid-broadcast can reach the response after the handler returns.
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			ch.close()
			s.registry.Unregister(ch)
			logger.Info().Int("connections", s.registry.Size()).Msg("SSE connection closed")
		})
	}
	defer cleanup()

	// Block until the client aborts or the server shuts down
	select {
	case <-r.Context().Done():
	case <-s.done:
	}
}
