package types

import (
	"encoding/json"
	"time"
)

// NetworkStatus represents the reported connectivity state of a device
type NetworkStatus string

const (
	NetworkStatusOnline  NetworkStatus = "online"
	NetworkStatusOffline NetworkStatus = "offline"
	NetworkStatusError   NetworkStatus = "error"
)

// DeviceSnapshot is one device's latest known telemetry, joined with its
// descriptive properties. Descriptive fields are nil when the device has no
// properties row (left-join reads) or an incomplete record. Telemetry fields
// are nil when the device never reported them or they do not apply to its
// phase configuration; nil and zero are distinct readings.
type DeviceSnapshot struct {
	DeviceID    string  `json:"device_id"`
	DeviceName  *string `json:"device_name"`
	FacultyName *string `json:"faculty_name"`
	Location    *string `json:"location"`

	NetworkStatus     NetworkStatus `json:"network_status"`
	ConnectionQuality *float64      `json:"connection_quality"`
	SignalStrength    *float64      `json:"signal_strength"`

	Voltage       *float64 `json:"voltage"`
	VoltagePhaseB *float64 `json:"voltage_phase_b"`
	VoltagePhaseC *float64 `json:"voltage_phase_c"`

	CurrentAmperage *float64 `json:"current_amperage"`
	CurrentPhaseB   *float64 `json:"current_phase_b"`
	CurrentPhaseC   *float64 `json:"current_phase_c"`

	PowerFactor       *float64 `json:"power_factor"`
	PowerFactorPhaseB *float64 `json:"power_factor_phase_b"`
	PowerFactorPhaseC *float64 `json:"power_factor_phase_c"`

	Frequency *float64 `json:"frequency"`

	ActivePower       *float64 `json:"active_power"`
	ReactivePower     *float64 `json:"reactive_power"`
	ApparentPower     *float64 `json:"apparent_power"`
	ActivePowerPhaseA *float64 `json:"active_power_phase_a"`
	ActivePowerPhaseB *float64 `json:"active_power_phase_b"`
	ActivePowerPhaseC *float64 `json:"active_power_phase_c"`

	DeviceTemperature *float64 `json:"device_temperature"`
	TotalEnergy       *float64 `json:"total_energy"`
	DailyEnergy       *float64 `json:"daily_energy"`

	LastDataReceived *time.Time `json:"last_data_received"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FrameType identifies an SSE frame
type FrameType string

const (
	FrameInitial   FrameType = "initial"
	FrameUpdate    FrameType = "update"
	FrameHeartbeat FrameType = "heartbeat"
)

// Frame is one SSE message: a single JSON object per data: line.
// Data is present for initial/update frames, Connections for heartbeats.
type Frame struct {
	Type        FrameType        `json:"type"`
	Data        []DeviceSnapshot `json:"data"`
	Connections int              `json:"connections,omitempty"`
	Timestamp   string           `json:"timestamp"`
}

// MarshalJSON pins the wire shape per frame type: initial/update frames
// always carry a data array, even when empty, and heartbeat frames carry a
// connections count and no data key at all.
func (f Frame) MarshalJSON() ([]byte, error) {
	if f.Type == FrameHeartbeat {
		return json.Marshal(struct {
			Type        FrameType `json:"type"`
			Connections int       `json:"connections"`
			Timestamp   string    `json:"timestamp"`
		}{f.Type, f.Connections, f.Timestamp})
	}

	data := f.Data
	if data == nil {
		data = []DeviceSnapshot{}
	}
	return json.Marshal(struct {
		Type      FrameType        `json:"type"`
		Data      []DeviceSnapshot `json:"data"`
		Timestamp string           `json:"timestamp"`
	}{f.Type, data, f.Timestamp})
}

// NewFrame builds a frame stamped with the current time
func NewFrame(t FrameType, data []DeviceSnapshot) Frame {
	return Frame{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SnapshotStats summarizes one snapshot query result
type SnapshotStats struct {
	TotalDevices   int    `json:"totalDevices"`
	OnlineDevices  int    `json:"onlineDevices"`
	OfflineDevices int    `json:"offlineDevices"`
	FacultyCount   int    `json:"facultyCount"`
	LastUpdated    string `json:"lastUpdated"`
}

// Pagination describes the window applied to a snapshot query
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// SnapshotResult is the payload of the one-shot devices endpoint
type SnapshotResult struct {
	Devices          []DeviceSnapshot            `json:"devices"`
	DevicesByFaculty map[string][]DeviceSnapshot `json:"devicesByFaculty"`
	Stats            SnapshotStats               `json:"stats"`
	Pagination       Pagination                  `json:"pagination"`
}

// SnapshotResponse is the full envelope of the one-shot devices endpoint
type SnapshotResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    SnapshotResult `json:"data"`
}
