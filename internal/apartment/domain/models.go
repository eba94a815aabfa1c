// Package domain contains core types for the apartment service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Apartment is one rentable room in the house.
type Apartment struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	RoomNumber  string            `gorm:"type:text;not null;uniqueIndex"`
	Floor       int               `gorm:"not null;default:1"`
	DefaultRent int64             `gorm:"not null"`
	// RentOverride, when set, replaces DefaultRent on invoices.
	RentOverride *int64            `gorm:""`
	Notes        string            `gorm:"type:text"`
	Metadata     datatypes.JSONMap `gorm:"not null;default:'{}'"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Apartment) TableName() string { return "apartments" }

// MonthlyRent returns the effective rent for invoicing.
func (a Apartment) MonthlyRent() int64 {
	if a.RentOverride != nil {
		return *a.RentOverride
	}
	return a.DefaultRent
}
