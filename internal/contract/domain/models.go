// Package domain contains core types for the contract service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ContractStatus represents contract lifecycle states.
type ContractStatus string

const (
	ContractStatusActive ContractStatus = "ACTIVE"
	ContractStatusEnded  ContractStatus = "ENDED"
)

// Contract binds one or more tenants to an apartment.
type Contract struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	ApartmentID snowflake.ID   `gorm:"not null;index"`
	StartDate   time.Time      `gorm:"not null"`
	EndDate     *time.Time     `gorm:""`
	Deposit     int64          `gorm:"not null;default:0"`
	Status      ContractStatus `gorm:"type:text;not null;default:'ACTIVE'"`
	EndedAt     *time.Time     `gorm:""`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Contract) TableName() string { return "contracts" }

// ContractTenant links a tenant to a contract.
type ContractTenant struct {
	ContractID snowflake.ID `gorm:"primaryKey"`
	TenantID   snowflake.ID `gorm:"primaryKey"`
}

// TableName sets the database table name.
func (ContractTenant) TableName() string { return "contract_tenants" }
