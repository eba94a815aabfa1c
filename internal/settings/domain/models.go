// Package domain contains core types for the cost settings service.
package domain

import "time"

// CostSettings is the single row of billing rates, VND. The defaults match
// what the business has historically charged; admins change them from the
// settings screen.
type CostSettings struct {
	ID                int64     `gorm:"primaryKey"`
	ElectricityPerKWH int64     `gorm:"column:electricity_per_kwh;not null"`
	WaterPerPerson    int64     `gorm:"not null"`
	InternetPerRoom   int64     `gorm:"not null"`
	ServicePerPerson  int64     `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CostSettings) TableName() string { return "cost_settings" }

// SettingsRowID pins the singleton row.
const SettingsRowID int64 = 1

// Default rates seeded on first run.
const (
	DefaultElectricityPerKWH int64 = 4000
	DefaultWaterPerPerson    int64 = 100000
	DefaultInternetPerRoom   int64 = 100000
	DefaultServicePerPerson  int64 = 100000
)
