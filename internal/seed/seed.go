// Package seed bootstraps the singleton rows and the first admin account so
// a fresh install is usable immediately.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	authdomain "nhatro/internal/auth/domain"
	"nhatro/internal/auth/password"
	"nhatro/internal/config"
	meterdomain "nhatro/internal/meterreading/domain"
	settingsdomain "nhatro/internal/settings/domain"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// EnsureCostSettings seeds the default billing rates when the singleton row
// is missing.
func EnsureCostSettings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	var row settingsdomain.CostSettings
	err := db.WithContext(ctx).
		Where("id = ?", settingsdomain.SettingsRowID).
		First(&row).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.WithContext(ctx).Create(&settingsdomain.CostSettings{
		ID:                settingsdomain.SettingsRowID,
		ElectricityPerKWH: settingsdomain.DefaultElectricityPerKWH,
		WaterPerPerson:    settingsdomain.DefaultWaterPerPerson,
		InternetPerRoom:   settingsdomain.DefaultInternetPerRoom,
		ServicePerPerson:  settingsdomain.DefaultServicePerPerson,
		UpdatedAt:         time.Now().UTC(),
	}).Error
}

// EnsureCurrentPeriod seeds the billing period singleton to the calendar
// month of first startup.
func EnsureCurrentPeriod(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	var row meterdomain.BillingPeriod
	err := db.WithContext(ctx).
		Where("id = ?", meterdomain.PeriodRowID).
		First(&row).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Create(&meterdomain.BillingPeriod{
		ID:        meterdomain.PeriodRowID,
		Month:     int(now.Month()),
		Year:      now.Year(),
		UpdatedAt: now,
	}).Error
}

// EnsureDefaultAdmin seeds the bootstrap admin account when no admin exists.
// The account is flagged is_default until its password is rotated.
func EnsureDefaultAdmin(db *gorm.DB, cfg config.BootstrapConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	username := strings.ToLower(strings.TrimSpace(cfg.DefaultAdminUsername))
	if username == "" {
		username = "admin"
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&authdomain.User{}).
			Where("role = ?", authdomain.RoleAdmin).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashed, err := password.Hash(cfg.DefaultAdminPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Create(&authdomain.User{
			ID:           node.Generate(),
			Username:     username,
			DisplayName:  "Administrator",
			PasswordHash: &hashed,
			Role:         authdomain.RoleAdmin,
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	})
}
