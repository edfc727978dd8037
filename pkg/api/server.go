package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/voltstream/voltstream/pkg/log"
	"github.com/voltstream/voltstream/pkg/metrics"
	"github.com/voltstream/voltstream/pkg/store"
	"github.com/voltstream/voltstream/pkg/stream"
	"github.com/voltstream/voltstream/pkg/types"
	"golang.org/x/time/rate"
)

// Version is set from the build's version information by the main package
var Version = "dev"

// Store is the slice of the snapshot store the API needs
type Store interface {
	FetchSnapshot(ctx context.Context, variant store.JoinVariant) ([]types.DeviceSnapshot, error)
	Ping(ctx context.Context) error
}

// Options tunes the HTTP surface
type Options struct {
	// New SSE connections per second allowed per client IP; zero disables
	// rate limiting
	SSERatePerSecond float64
	SSERateBurst     int

	// Reported by the status endpoint
	BroadcastInterval time.Duration
	HeartbeatInterval time.Duration
}

// Server provides the realtime HTTP endpoints: the SSE stream, the one-shot
// snapshot queries, and the health/metrics surface.
type Server struct {
	store       Store
	registry    *stream.Registry
	broadcaster *stream.Broadcaster
	opts        Options
	mux         *http.ServeMux

	httpSrv *http.Server
	done    chan struct{}

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	logger zerolog.Logger
}

// NewServer creates the API server and registers all routes
func NewServer(st Store, registry *stream.Registry, broadcaster *stream.Broadcaster, opts Options) *Server {
	mux := http.NewServeMux()
	s := &Server{
		store:       st,
		registry:    registry,
		broadcaster: broadcaster,
		opts:        opts,
		mux:         mux,
		done:        make(chan struct{}),
		limiters:    make(map[string]*rate.Limiter),
		logger:      log.WithComponent("api"),
	}

	// Register endpoints
	mux.HandleFunc("/api/realtime/stream", s.streamHandler)
	mux.HandleFunc("/api/realtime/devices", s.devicesHandler)
	mux.HandleFunc("/api/realtime/snapshot", s.snapshotHandler)
	mux.HandleFunc("/api/realtime/status", s.statusHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return s
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: SSE responses stay open indefinitely
	}
	s.logger.Info().Str("addr", addr).Msg("API server listening")
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully stops the server. Open SSE handlers are released first so
// Shutdown does not wait out their streams.
func (s *Server) Stop(ctx context.Context) error {
	close(s.done)
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// GetHandler returns the HTTP handler for embedding in tests or other servers
func (s *Server) GetHandler() http.Handler {
	return s.mux
}

// allowConnect applies the per-client-IP rate limit for new SSE connections
func (s *Server) allowConnect(ip string) bool {
	if s.opts.SSERatePerSecond <= 0 {
		return true
	}

	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	limiter, ok := s.limiters[ip]
	if !ok {
		burst := s.opts.SSERateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(s.opts.SSERatePerSecond), burst)
		s.limiters[ip] = limiter
	}
	return limiter.Allow()
}

// getClientIP extracts the original client IP, honoring proxy headers
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
