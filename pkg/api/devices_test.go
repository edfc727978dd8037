package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltstream/voltstream/pkg/store"
	"github.com/voltstream/voltstream/pkg/stream"
	"github.com/voltstream/voltstream/pkg/types"
)

func strPtr(s string) *string { return &s }

func snap(id, name, faculty string, status types.NetworkStatus) types.DeviceSnapshot {
	return types.DeviceSnapshot{
		DeviceID:      id,
		DeviceName:    strPtr(name),
		FacultyName:   strPtr(faculty),
		NetworkStatus: status,
		UpdatedAt:     time.Now(),
	}
}

// newQueryServer wires the API over an idle stream stack; the one-shot
// endpoints never start the broadcaster
func newQueryServer(t *testing.T, st *fakeStore) *httptest.Server {
	t.Helper()

	registry := stream.NewRegistry(time.Minute)
	broadcaster := stream.NewBroadcaster(registry, stream.SourceFunc(
		func(ctx context.Context) ([]types.DeviceSnapshot, error) {
			return st.FetchSnapshot(ctx, store.JoinInner)
		}), time.Minute, time.Second)

	srv := NewServer(st, registry, broadcaster, Options{
		BroadcastInterval: 5 * time.Second,
		HeartbeatInterval: 30 * time.Second,
	})
	ts := httptest.NewServer(srv.GetHandler())
	t.Cleanup(ts.Close)
	return ts
}

func getDevices(t *testing.T, ts *httptest.Server, query string) types.SnapshotResponse {
	t.Helper()

	resp, err := http.Get(ts.URL + "/api/realtime/devices" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body types.SnapshotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestDevices_AllDevices(t *testing.T) {
	st := &fakeStore{snapshots: []types.DeviceSnapshot{
		snap("dev-1", "Meter A", "Engineering", types.NetworkStatusOnline),
		snap("dev-2", "Meter B", "Engineering", types.NetworkStatusOffline),
		snap("dev-3", "Meter C", "Science", types.NetworkStatusOnline),
	}}
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "")
	require.True(t, body.Success)
	assert.Len(t, body.Data.Devices, 3)
	assert.Equal(t, 3, body.Data.Stats.TotalDevices)
	assert.Equal(t, 2, body.Data.Stats.OnlineDevices)
	assert.Equal(t, 1, body.Data.Stats.OfflineDevices)
	assert.Equal(t, 2, body.Data.Stats.FacultyCount)
	assert.Len(t, body.Data.DevicesByFaculty["Engineering"], 2)
	assert.Len(t, body.Data.DevicesByFaculty["Science"], 1)
	assert.False(t, body.Data.Pagination.HasMore)
}

func TestDevices_FacultyFilter(t *testing.T) {
	st := &fakeStore{snapshots: []types.DeviceSnapshot{
		snap("dev-1", "Meter A", "Engineering", types.NetworkStatusOnline),
		snap("dev-2", "Meter B", "Science", types.NetworkStatusOnline),
	}}
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "?faculty=Science")
	require.True(t, body.Success)
	require.Len(t, body.Data.Devices, 1)
	assert.Equal(t, "dev-2", body.Data.Devices[0].DeviceID)
	assert.Equal(t, 1, body.Data.Stats.TotalDevices)
	assert.Equal(t, 1, body.Data.Stats.FacultyCount)

	// "all" is a pass-through sentinel, not a faculty name
	body = getDevices(t, ts, "?faculty=all")
	assert.Len(t, body.Data.Devices, 2)
}

func TestDevices_StatusFilter(t *testing.T) {
	st := &fakeStore{snapshots: []types.DeviceSnapshot{
		snap("dev-1", "Meter A", "Engineering", types.NetworkStatusOnline),
		snap("dev-2", "Meter B", "Engineering", types.NetworkStatusOffline),
		snap("dev-3", "Meter C", "Engineering", types.NetworkStatusOffline),
	}}
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "?status=offline")
	require.True(t, body.Success)
	assert.Len(t, body.Data.Devices, 2)
	assert.Equal(t, 2, body.Data.Stats.TotalDevices)
	assert.Equal(t, 0, body.Data.Stats.OnlineDevices)
	assert.Equal(t, 2, body.Data.Stats.OfflineDevices)
}

func TestDevices_StatsCoverFilteredSetNotPage(t *testing.T) {
	snapshots := make([]types.DeviceSnapshot, 0, 10)
	for i := 0; i < 10; i++ {
		status := types.NetworkStatusOnline
		if i%2 == 1 {
			status = types.NetworkStatusOffline
		}
		snapshots = append(snapshots, snap(fmt.Sprintf("dev-%d", i), fmt.Sprintf("Meter %d", i), "Engineering", status))
	}
	st := &fakeStore{snapshots: snapshots}
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "?limit=3&offset=0")
	require.True(t, body.Success)
	assert.Len(t, body.Data.Devices, 3)
	// Aggregates describe all ten devices, not just the three returned
	assert.Equal(t, 10, body.Data.Stats.TotalDevices)
	assert.Equal(t, 5, body.Data.Stats.OnlineDevices)
	assert.Equal(t, 5, body.Data.Stats.OfflineDevices)
}

func TestDevices_Pagination(t *testing.T) {
	snapshots := make([]types.DeviceSnapshot, 0, 7)
	for i := 0; i < 7; i++ {
		snapshots = append(snapshots, snap(fmt.Sprintf("dev-%d", i), fmt.Sprintf("Meter %d", i), "Engineering", types.NetworkStatusOnline))
	}
	st := &fakeStore{snapshots: snapshots}
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "?limit=3&offset=0")
	assert.Len(t, body.Data.Devices, 3)
	assert.Equal(t, types.Pagination{Total: 7, Limit: 3, Offset: 0, HasMore: true}, body.Data.Pagination)

	body = getDevices(t, ts, "?limit=3&offset=6")
	assert.Len(t, body.Data.Devices, 1)
	assert.Equal(t, "dev-6", body.Data.Devices[0].DeviceID)
	assert.False(t, body.Data.Pagination.HasMore)

	// Offset past the end yields an empty page, not an error
	body = getDevices(t, ts, "?limit=3&offset=100")
	assert.Empty(t, body.Data.Devices)
	assert.Equal(t, 7, body.Data.Pagination.Total)
	assert.False(t, body.Data.Pagination.HasMore)
}

func TestDevices_MalformedParamsDefaulted(t *testing.T) {
	st := &fakeStore{snapshots: []types.DeviceSnapshot{
		snap("dev-1", "Meter A", "Engineering", types.NetworkStatusOnline),
	}}
	ts := newQueryServer(t, st)

	for _, query := range []string{
		"?limit=abc&offset=xyz",
		"?limit=-5&offset=-2",
		"?limit=0",
	} {
		body := getDevices(t, ts, query)
		require.True(t, body.Success, query)
		assert.Len(t, body.Data.Devices, 1, query)
		assert.Equal(t, defaultLimit, body.Data.Pagination.Limit, query)
		assert.Equal(t, 0, body.Data.Pagination.Offset, query)
	}

	// Oversized limits are clamped rather than rejected
	body := getDevices(t, ts, "?limit=99999")
	assert.Equal(t, maxLimit, body.Data.Pagination.Limit)
}

func TestDevices_NilFacultyGroupedAsUnknown(t *testing.T) {
	orphan := types.DeviceSnapshot{DeviceID: "dev-raw", NetworkStatus: types.NetworkStatusOffline, UpdatedAt: time.Now()}
	st := &fakeStore{snapshots: []types.DeviceSnapshot{
		snap("dev-1", "Meter A", "Engineering", types.NetworkStatusOnline),
		orphan,
	}}
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "")
	require.True(t, body.Success)
	require.Len(t, body.Data.DevicesByFaculty[store.UnknownFaculty], 1)
	assert.Equal(t, "dev-raw", body.Data.DevicesByFaculty[store.UnknownFaculty][0].DeviceID)
	assert.Equal(t, 2, body.Data.Stats.FacultyCount)

	// The unknown bucket is addressable as a filter value too
	body = getDevices(t, ts, "?faculty="+store.UnknownFaculty)
	require.Len(t, body.Data.Devices, 1)
	assert.Equal(t, "dev-raw", body.Data.Devices[0].DeviceID)
}

func TestDevices_StoreErrorReturnsWellFormedFailure(t *testing.T) {
	st := &fakeStore{}
	st.setErr(errors.New("connection reset"))
	ts := newQueryServer(t, st)

	body := getDevices(t, ts, "?limit=25&offset=50")
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to fetch devices data", body.Message)
	assert.NotNil(t, body.Data.Devices)
	assert.Empty(t, body.Data.Devices)
	assert.NotNil(t, body.Data.DevicesByFaculty)
	assert.Equal(t, 25, body.Data.Pagination.Limit)
	assert.Equal(t, 50, body.Data.Pagination.Offset)
}

func TestSnapshot_GroupedByFacultyAndName(t *testing.T) {
	st := &fakeStore{snapshots: []types.DeviceSnapshot{
		snap("dev-1", "Main Meter", "Engineering", types.NetworkStatusOnline),
		snap("dev-2", "Lab Meter", "Engineering", types.NetworkStatusOffline),
		snap("dev-3", "Main Meter", "Science", types.NetworkStatusOnline),
	}}
	ts := newQueryServer(t, st)

	resp, err := http.Get(ts.URL + "/api/realtime/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body groupedSnapshotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	assert.Equal(t, 3, body.Data.TotalDevices)
	require.Len(t, body.Data.DevicesByFaculty, 2)
	assert.Contains(t, body.Data.DevicesByFaculty["Engineering"], "Main Meter")
	assert.Contains(t, body.Data.DevicesByFaculty["Engineering"], "Lab Meter")
	assert.Contains(t, body.Data.DevicesByFaculty["Science"], "Main Meter")
	assert.NotEmpty(t, body.Data.Timestamp)
}

func TestSnapshot_StoreError(t *testing.T) {
	st := &fakeStore{}
	st.setErr(errors.New("boom"))
	ts := newQueryServer(t, st)

	resp, err := http.Get(ts.URL + "/api/realtime/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body groupedSnapshotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Error fetching device data", body.Message)
	assert.NotNil(t, body.Data.DevicesByFaculty)
	assert.Empty(t, body.Data.DevicesByFaculty)
}

func TestStatus_ReportsIdleStream(t *testing.T) {
	st := &fakeStore{}
	ts := newQueryServer(t, st)

	resp, err := http.Get(ts.URL + "/api/realtime/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "running", body.Status)
	assert.Equal(t, 0, body.Stream.ActiveConnections)
	assert.False(t, body.Stream.BroadcasterRunning)
	assert.Equal(t, 5, body.Stream.BroadcastIntervalSeconds)
	assert.Equal(t, 30, body.Stream.HeartbeatIntervalSeconds)
}
