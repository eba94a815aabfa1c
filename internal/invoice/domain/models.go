// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
)

// Invoice is one room's bill for one month. The component columns mirror the
// engine line exactly; Total always equals their sum.
type Invoice struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	InvoiceNumber     string        `gorm:"type:text;not null;uniqueIndex"`
	ApartmentID       snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_invoice_room_period,priority:1"`
	Month             int           `gorm:"not null;uniqueIndex:ux_invoice_room_period,priority:2"`
	Year              int           `gorm:"not null;uniqueIndex:ux_invoice_room_period,priority:3"`
	Rent              int64         `gorm:"not null"`
	RoomElectricity   int64         `gorm:"not null"`
	SharedElectricity int64         `gorm:"not null"`
	Electricity       int64         `gorm:"not null"`
	Water             int64         `gorm:"not null"`
	Internet          int64         `gorm:"not null"`
	Service           int64         `gorm:"not null"`
	Other             int64         `gorm:"not null;default:0"`
	OtherDescription  string        `gorm:"type:text"`
	Total             int64         `gorm:"not null"`
	TenantCount       int           `gorm:"not null"`
	Status            InvoiceStatus `gorm:"type:text;not null;default:'PENDING'"`
	DueDate           time.Time     `gorm:"not null"`
	PaidAt            *time.Time    `gorm:""`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
