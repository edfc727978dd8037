package store

import (
	"time"
)

// DeviceData is the latest-telemetry row for one device. It is written by the
// ingestion path; this service only ever reads it. Numeric readings are kept
// as text exactly as ingested so that "never reported" stays distinguishable
// from a literal zero.
type DeviceData struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	DeviceID string `gorm:"uniqueIndex;not null;size:64"`

	NetworkStatus     string  `gorm:"size:16"`
	ConnectionQuality *string `gorm:"size:32"`
	SignalStrength    *string `gorm:"size:32"`

	Voltage       *string `gorm:"size:32"`
	VoltagePhaseB *string `gorm:"size:32"`
	VoltagePhaseC *string `gorm:"size:32"`

	CurrentAmperage *string `gorm:"size:32"`
	CurrentPhaseB   *string `gorm:"size:32"`
	CurrentPhaseC   *string `gorm:"size:32"`

	PowerFactor       *string `gorm:"size:32"`
	PowerFactorPhaseB *string `gorm:"size:32"`
	PowerFactorPhaseC *string `gorm:"size:32"`

	Frequency *string `gorm:"size:32"`

	ActivePower       *string `gorm:"size:32"`
	ReactivePower     *string `gorm:"size:32"`
	ApparentPower     *string `gorm:"size:32"`
	ActivePowerPhaseA *string `gorm:"size:32"`
	ActivePowerPhaseB *string `gorm:"size:32"`
	ActivePowerPhaseC *string `gorm:"size:32"`

	DeviceTemperature *string `gorm:"size:32"`
	TotalEnergy       *string `gorm:"size:32"`
	DailyEnergy       *string `gorm:"size:32"`

	LastDataReceived *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// TableName customizes the table name
func (DeviceData) TableName() string {
	return "devices_data"
}

// DeviceProp is the descriptive properties row for one device
type DeviceProp struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	DeviceID   string `gorm:"uniqueIndex;not null;size:64"`
	DeviceName string `gorm:"size:255"`
	DeviceType string `gorm:"size:64"`
	LocationID *uint
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName customizes the table name
func (DeviceProp) TableName() string {
	return "devices_prop"
}

// Location places a device inside a faculty's building
type Location struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Building  string `gorm:"size:128"`
	Floor     string `gorm:"size:32"`
	Room      string `gorm:"size:64"`
	FacultyID *uint
}

// TableName customizes the table name
func (Location) TableName() string {
	return "locations"
}

// Faculty is the organizational grouping a device belongs to
type Faculty struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	FacultyName string `gorm:"uniqueIndex;size:128"`
}

// TableName customizes the table name
func (Faculty) TableName() string {
	return "faculties"
}

// GetAllModels returns all models for migration
func GetAllModels() []interface{} {
	return []interface{}{
		&DeviceData{},
		&DeviceProp{},
		&Location{},
		&Faculty{},
	}
}
