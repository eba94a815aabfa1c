// Package domain contains core types for the tenant service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is a person on record: a resident, or a contract signer who does
// not live in the house.
type Tenant struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	FullName string       `gorm:"type:text;not null"`
	Phone    string       `gorm:"type:text"`
	IDCard   string       `gorm:"column:id_card;type:text"`
	// NonResidentSigner marks someone who signs a contract but never counts
	// toward billable occupancy.
	NonResidentSigner bool      `gorm:"not null;default:false"`
	Notes             string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
