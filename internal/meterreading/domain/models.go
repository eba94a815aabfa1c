// Package domain contains persistence models for meter readings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Meter phases for the building registers.
const (
	PhaseSingle = "SINGLE"
	PhaseThree  = "THREE"
)

// BillingPeriod is the single row tracking which month is being edited.
type BillingPeriod struct {
	ID        int64     `gorm:"primaryKey"`
	Month     int       `gorm:"not null"`
	Year      int       `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingPeriod) TableName() string { return "billing_periods" }

// PeriodRowID pins the singleton row.
const PeriodRowID int64 = 1

// BuildingMeterReading is one building-level register for one period.
type BuildingMeterReading struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Phase     string       `gorm:"type:text;not null;uniqueIndex:ux_building_meter_period,priority:1"`
	Month     int          `gorm:"not null;uniqueIndex:ux_building_meter_period,priority:2"`
	Year      int          `gorm:"not null;uniqueIndex:ux_building_meter_period,priority:3"`
	Previous  int64        `gorm:"not null;default:0"`
	Current   int64        `gorm:"not null;default:0"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BuildingMeterReading) TableName() string { return "building_meter_readings" }

// RoomMeterReading is one room register for one period. Usage is stored
// denormalized and kept consistent with current-previous on every write.
type RoomMeterReading struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	ApartmentID snowflake.ID `gorm:"not null;uniqueIndex:ux_room_meter_period,priority:1"`
	Month       int          `gorm:"not null;uniqueIndex:ux_room_meter_period,priority:2"`
	Year        int          `gorm:"not null;uniqueIndex:ux_room_meter_period,priority:3"`
	Previous    int64        `gorm:"not null;default:0"`
	Current     int64        `gorm:"not null;default:0"`
	Usage       int64        `gorm:"not null;default:0"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RoomMeterReading) TableName() string { return "room_meter_readings" }
