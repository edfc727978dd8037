package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/voltstream/voltstream/pkg/log"
	"github.com/voltstream/voltstream/pkg/metrics"
	"github.com/voltstream/voltstream/pkg/types"
	"gorm.io/gorm"
)

// JoinVariant selects how devices without a properties row are treated by
// FetchSnapshot. Grouped views use JoinInner and silently exclude them; the
// flat listing uses JoinLeft and includes them with nil descriptive fields.
type JoinVariant int

const (
	JoinInner JoinVariant = iota
	JoinLeft
)

// Store reads the latest-known telemetry snapshot from the backing database.
// It never writes; ingestion owns the tables.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a store on top of an established database connection
func New(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		logger: log.WithComponent("store"),
	}
}

const snapshotQuery = `
SELECT
  dd.device_id,
  dp.device_name,
  f.faculty_name,
  l.building,
  l.floor,
  l.room,
  dd.network_status,
  dd.connection_quality,
  dd.signal_strength,
  dd.voltage,
  dd.voltage_phase_b,
  dd.voltage_phase_c,
  dd.current_amperage,
  dd.current_phase_b,
  dd.current_phase_c,
  dd.power_factor,
  dd.power_factor_phase_b,
  dd.power_factor_phase_c,
  dd.frequency,
  dd.active_power,
  dd.reactive_power,
  dd.apparent_power,
  dd.active_power_phase_a,
  dd.active_power_phase_b,
  dd.active_power_phase_c,
  dd.device_temperature,
  dd.total_energy,
  dd.daily_energy,
  dd.last_data_received,
  dd.updated_at
FROM devices_data dd
%s JOIN devices_prop dp ON dd.device_id = dp.device_id
LEFT JOIN locations l ON dp.location_id = l.id
LEFT JOIN faculties f ON l.faculty_id = f.id
ORDER BY dd.updated_at DESC
`

// snapshotRow is the raw scan target for the snapshot query. Telemetry comes
// back as nullable text so that parsing stays under our control regardless of
// how the backing column is typed.
type snapshotRow struct {
	DeviceID    string
	DeviceName  sql.NullString
	FacultyName sql.NullString
	Building    sql.NullString
	Floor       sql.NullString
	Room        sql.NullString

	NetworkStatus     sql.NullString
	ConnectionQuality sql.NullString
	SignalStrength    sql.NullString

	Voltage       sql.NullString
	VoltagePhaseB sql.NullString
	VoltagePhaseC sql.NullString

	CurrentAmperage sql.NullString
	CurrentPhaseB   sql.NullString
	CurrentPhaseC   sql.NullString

	PowerFactor       sql.NullString
	PowerFactorPhaseB sql.NullString
	PowerFactorPhaseC sql.NullString

	Frequency sql.NullString

	ActivePower       sql.NullString
	ReactivePower     sql.NullString
	ApparentPower     sql.NullString
	ActivePowerPhaseA sql.NullString
	ActivePowerPhaseB sql.NullString
	ActivePowerPhaseC sql.NullString

	DeviceTemperature sql.NullString
	TotalEnergy       sql.NullString
	DailyEnergy       sql.NullString

	LastDataReceived sql.NullTime
	UpdatedAt        time.Time
}

// FetchSnapshot returns the latest telemetry row per device joined with its
// descriptive properties, most recently updated first. Each call issues one
// query and reflects the database's state at call time; there is no caching.
func (s *Store) FetchSnapshot(ctx context.Context, variant JoinVariant) ([]types.DeviceSnapshot, error) {
	join := "INNER"
	if variant == JoinLeft {
		join = "LEFT"
	}

	start := time.Now()
	var rows []snapshotRow
	if err := s.db.WithContext(ctx).Raw(fmt.Sprintf(snapshotQuery, join)).Scan(&rows).Error; err != nil {
		metrics.SnapshotFetchErrors.Inc()
		return nil, fmt.Errorf("failed to fetch device snapshot: %w", err)
	}
	metrics.SnapshotFetchDuration.Observe(time.Since(start).Seconds())

	snapshots := make([]types.DeviceSnapshot, 0, len(rows))
	for _, row := range rows {
		snapshots = append(snapshots, row.toSnapshot())
	}
	return snapshots, nil
}

// Ping verifies the backing database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r snapshotRow) toSnapshot() types.DeviceSnapshot {
	snap := types.DeviceSnapshot{
		DeviceID:    r.DeviceID,
		DeviceName:  nullString(r.DeviceName),
		FacultyName: nullString(r.FacultyName),
		Location:    locationLabel(r.Building, r.Floor, r.Room),

		NetworkStatus:     types.NetworkStatus(r.NetworkStatus.String),
		ConnectionQuality: parseNullFloat(r.ConnectionQuality),
		SignalStrength:    parseNullFloat(r.SignalStrength),

		Voltage:       parseNullFloat(r.Voltage),
		VoltagePhaseB: parseNullFloat(r.VoltagePhaseB),
		VoltagePhaseC: parseNullFloat(r.VoltagePhaseC),

		CurrentAmperage: parseNullFloat(r.CurrentAmperage),
		CurrentPhaseB:   parseNullFloat(r.CurrentPhaseB),
		CurrentPhaseC:   parseNullFloat(r.CurrentPhaseC),

		PowerFactor:       parseNullFloat(r.PowerFactor),
		PowerFactorPhaseB: parseNullFloat(r.PowerFactorPhaseB),
		PowerFactorPhaseC: parseNullFloat(r.PowerFactorPhaseC),

		Frequency: parseNullFloat(r.Frequency),

		ActivePower:       parseNullFloat(r.ActivePower),
		ReactivePower:     parseNullFloat(r.ReactivePower),
		ApparentPower:     parseNullFloat(r.ApparentPower),
		ActivePowerPhaseA: parseNullFloat(r.ActivePowerPhaseA),
		ActivePowerPhaseB: parseNullFloat(r.ActivePowerPhaseB),
		ActivePowerPhaseC: parseNullFloat(r.ActivePowerPhaseC),

		DeviceTemperature: parseNullFloat(r.DeviceTemperature),
		TotalEnergy:       parseNullFloat(r.TotalEnergy),
		DailyEnergy:       parseNullFloat(r.DailyEnergy),

		UpdatedAt: r.UpdatedAt,
	}
	if r.LastDataReceived.Valid {
		t := r.LastDataReceived.Time
		snap.LastDataReceived = &t
	}
	return snap
}

// parseNullFloat converts a nullable text reading to a float pointer. Null,
// empty, and non-numeric values all become nil; "0" becomes 0. Zero is a
// valid reading and must never be conflated with "absent". NaN and infinity
// also become nil: ParseFloat accepts them, but they have no JSON encoding
// and one such reading would poison every frame it appears in.
func parseNullFloat(ns sql.NullString) *float64 {
	if !ns.Valid {
		return nil
	}
	raw := strings.TrimSpace(ns.String)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}

// locationLabel composes a display label from the location columns. Built in
// Go rather than SQL CONCAT so the query stays portable across drivers.
func locationLabel(building, floor, room sql.NullString) *string {
	var parts []string
	if building.Valid && building.String != "" {
		parts = append(parts, building.String)
	}
	if floor.Valid && floor.String != "" {
		parts = append(parts, "floor "+floor.String)
	}
	if room.Valid && room.String != "" {
		parts = append(parts, "room "+room.String)
	}
	if len(parts) == 0 {
		return nil
	}
	label := strings.Join(parts, " ")
	return &label
}
