package service

import (
	"context"
	"errors"
	"time"

	settingsdomain "nhatro/internal/settings/domain"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) settingsdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("settings.service"),
	}
}

func (s *Service) Get(ctx context.Context) (*settingsdomain.Response, error) {
	row, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(row), nil
}

func (s *Service) Update(ctx context.Context, req settingsdomain.UpdateRequest) (*settingsdomain.Response, error) {
	row, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if req.ElectricityPerKWH != nil {
		row.ElectricityPerKWH = *req.ElectricityPerKWH
	}
	if req.WaterPerPerson != nil {
		row.WaterPerPerson = *req.WaterPerPerson
	}
	if req.InternetPerRoom != nil {
		row.InternetPerRoom = *req.InternetPerRoom
	}
	if req.ServicePerPerson != nil {
		row.ServicePerPerson = *req.ServicePerPerson
	}

	if row.ElectricityPerKWH <= 0 || row.WaterPerPerson <= 0 ||
		row.InternetPerRoom <= 0 || row.ServicePerPerson <= 0 {
		return nil, settingsdomain.ErrNonPositiveRate
	}

	row.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}

	s.log.Info("cost settings updated",
		zap.Int64("electricity_per_kwh", row.ElectricityPerKWH),
		zap.Int64("water_per_person", row.WaterPerPerson),
		zap.Int64("internet_per_room", row.InternetPerRoom),
		zap.Int64("service_per_person", row.ServicePerPerson),
	)

	return toResponse(row), nil
}

func (s *Service) load(ctx context.Context) (*settingsdomain.CostSettings, error) {
	var row settingsdomain.CostSettings
	err := s.db.WithContext(ctx).
		Where("id = ?", settingsdomain.SettingsRowID).
		First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// Missing row falls back to seeded defaults so a billing run never
		// sees a zero rate.
		row = settingsdomain.CostSettings{
			ID:                settingsdomain.SettingsRowID,
			ElectricityPerKWH: settingsdomain.DefaultElectricityPerKWH,
			WaterPerPerson:    settingsdomain.DefaultWaterPerPerson,
			InternetPerRoom:   settingsdomain.DefaultInternetPerRoom,
			ServicePerPerson:  settingsdomain.DefaultServicePerPerson,
			UpdatedAt:         time.Now().UTC(),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}

func toResponse(row *settingsdomain.CostSettings) *settingsdomain.Response {
	return &settingsdomain.Response{
		ElectricityPerKWH: row.ElectricityPerKWH,
		WaterPerPerson:    row.WaterPerPerson,
		InternetPerRoom:   row.InternetPerRoom,
		ServicePerPerson:  row.ServicePerPerson,
		UpdatedAt:         row.UpdatedAt,
	}
}
