package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/voltstream/voltstream/pkg/metrics"
	"github.com/voltstream/voltstream/pkg/store"
	"github.com/voltstream/voltstream/pkg/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// parseLimit defaults malformed or missing values instead of rejecting them;
// the endpoint prioritizes availability over strictness
func parseLimit(raw string) int {
	if raw == "" {
		return defaultLimit
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return defaultLimit
	}
	if v > maxLimit {
		return maxLimit
	}
	return v
}

func parseOffset(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// facultyOf resolves the effective grouping label for a snapshot
func facultyOf(snap types.DeviceSnapshot) string {
	if snap.FacultyName != nil && *snap.FacultyName != "" {
		return *snap.FacultyName
	}
	return store.UnknownFaculty
}

// devicesHandler is the one-shot pull equivalent of the SSE stream: fetch,
// filter, aggregate, paginate, respond. Aggregates are computed over the
// filtered set before pagination, so they describe the whole selection, not
// just the returned page.
func (s *Server) devicesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	faculty := params.Get("faculty")
	status := params.Get("status")
	limit := parseLimit(params.Get("limit"))
	offset := parseOffset(params.Get("offset"))

	// Flat listing uses the left-join variant: devices without a properties
	// row are included with null descriptive fields
	snapshots, err := s.store.FetchSnapshot(r.Context(), store.JoinLeft)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch devices data")
		metrics.APIRequestsTotal.WithLabelValues("devices", "200").Inc()
		writeJSON(w, http.StatusOK, types.SnapshotResponse{
			Success: false,
			Message: "Failed to fetch devices data",
			Data:    emptyResult(limit, offset),
		})
		return
	}

	// Filter before counting
	filtered := make([]types.DeviceSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if faculty != "" && faculty != "all" && facultyOf(snap) != faculty {
			continue
		}
		if status != "" && status != "all" && string(snap.NetworkStatus) != status {
			continue
		}
		filtered = append(filtered, snap)
	}

	stats := types.SnapshotStats{
		TotalDevices: len(filtered),
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
	}
	faculties := make(map[string]struct{})
	for _, snap := range filtered {
		faculties[facultyOf(snap)] = struct{}{}
		switch snap.NetworkStatus {
		case types.NetworkStatusOnline:
			stats.OnlineDevices++
		case types.NetworkStatusOffline:
			stats.OfflineDevices++
		}
	}
	stats.FacultyCount = len(faculties)

	// Paginate after filtering
	page := filtered
	if offset >= len(page) {
		page = []types.DeviceSnapshot{}
	} else {
		page = page[offset:]
		if limit < len(page) {
			page = page[:limit]
		}
	}

	byFaculty := make(map[string][]types.DeviceSnapshot)
	for _, snap := range page {
		key := facultyOf(snap)
		byFaculty[key] = append(byFaculty[key], snap)
	}

	metrics.APIRequestsTotal.WithLabelValues("devices", "200").Inc()
	writeJSON(w, http.StatusOK, types.SnapshotResponse{
		Success: true,
		Data: types.SnapshotResult{
			Devices:          page,
			DevicesByFaculty: byFaculty,
			Stats:            stats,
			Pagination: types.Pagination{
				Total:   len(filtered),
				Limit:   limit,
				Offset:  offset,
				HasMore: offset+limit < len(filtered),
			},
		},
	})
}

// groupedSnapshot is the payload of the grouped snapshot endpoint
type groupedSnapshot struct {
	DevicesByFaculty map[string]map[string]types.DeviceSnapshot `json:"devicesByFaculty"`
	TotalDevices     int                                        `json:"totalDevices"`
	Timestamp        string                                     `json:"timestamp"`
}

type groupedSnapshotResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    groupedSnapshot `json:"data"`
}

// snapshotHandler returns the faculty-grouped nested view used by the
// dashboard overview. Devices without a properties row have no place in a
// grouped display, hence the inner-join variant.
func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshots, err := s.store.FetchSnapshot(r.Context(), store.JoinInner)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch grouped snapshot")
		metrics.APIRequestsTotal.WithLabelValues("snapshot", "200").Inc()
		writeJSON(w, http.StatusOK, groupedSnapshotResponse{
			Success: false,
			Message: "Error fetching device data",
			Data: groupedSnapshot{
				DevicesByFaculty: map[string]map[string]types.DeviceSnapshot{},
				Timestamp:        time.Now().UTC().Format(time.RFC3339),
			},
		})
		return
	}

	metrics.APIRequestsTotal.WithLabelValues("snapshot", "200").Inc()
	writeJSON(w, http.StatusOK, groupedSnapshotResponse{
		Success: true,
		Message: "Device data retrieved successfully",
		Data: groupedSnapshot{
			DevicesByFaculty: store.GroupByFaculty(snapshots),
			TotalDevices:     len(snapshots),
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// statusResponse reports the state of the stream layer
type statusResponse struct {
	Success   bool         `json:"success"`
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Stream    streamStatus `json:"stream"`
}

type streamStatus struct {
	ActiveConnections        int  `json:"activeConnections"`
	BroadcasterRunning       bool `json:"broadcasterRunning"`
	BroadcastIntervalSeconds int  `json:"broadcastIntervalSeconds"`
	HeartbeatIntervalSeconds int  `json:"heartbeatIntervalSeconds"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics.APIRequestsTotal.WithLabelValues("status", "200").Inc()
	writeJSON(w, http.StatusOK, statusResponse{
		Success:   true,
		Status:    "running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stream: streamStatus{
			ActiveConnections:        s.registry.Size(),
			BroadcasterRunning:       s.broadcaster.Running(),
			BroadcastIntervalSeconds: int(s.opts.BroadcastInterval.Seconds()),
			HeartbeatIntervalSeconds: int(s.opts.HeartbeatInterval.Seconds()),
		},
	})
}

func emptyResult(limit, offset int) types.SnapshotResult {
	return types.SnapshotResult{
		Devices:          []types.DeviceSnapshot{},
		DevicesByFaculty: map[string][]types.DeviceSnapshot{},
		Stats: types.SnapshotStats{
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
		},
		Pagination: types.Pagination{Limit: limit, Offset: offset},
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
