package service

import (
	"context"
	"errors"
	"strings"
	"time"

	apartmentdomain "nhatro/internal/apartment/domain"
	"nhatro/internal/billing/engine"
	meterdomain "nhatro/internal/meterreading/domain"
	"nhatro/internal/metrics"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	metrics *metrics.BillingMetrics
}

func New(p Params) meterdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("meterreading.service"),
		genID:   p.GenID,
		metrics: metrics.Billing(),
	}
}

func (s *Service) CurrentPeriod(ctx context.Context) (engine.Period, error) {
	return s.currentPeriodTx(ctx, s.db)
}

func (s *Service) currentPeriodTx(ctx context.Context, tx *gorm.DB) (engine.Period, error) {
	var row meterdomain.BillingPeriod
	err := tx.WithContext(ctx).
		Where("id = ?", meterdomain.PeriodRowID).
		First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.Period{}, err
		}
		now := time.Now().UTC()
		row = meterdomain.BillingPeriod{
			ID:        meterdomain.PeriodRowID,
			Month:     int(now.Month()),
			Year:      now.Year(),
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return engine.Period{}, err
		}
	}
	return engine.Period{Month: row.Month, Year: row.Year}, nil
}

func (s *Service) GetBuildingReadings(ctx context.Context) ([]meterdomain.BuildingReadingResponse, error) {
	period, err := s.CurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]meterdomain.BuildingReadingResponse, 0, 2)
	for _, phase := range []string{meterdomain.PhaseSingle, meterdomain.PhaseThree} {
		row, err := s.findBuildingReading(ctx, s.db, phase, period)
		if err != nil {
			return nil, err
		}
		if row == nil {
			resp = append(resp, meterdomain.BuildingReadingResponse{
				Phase: phase,
				Month: period.Month,
				Year:  period.Year,
			})
			continue
		}
		resp = append(resp, toBuildingResponse(row))
	}
	return resp, nil
}

func (s *Service) UpsertBuildingReading(ctx context.Context, req meterdomain.UpsertBuildingRequest) (*meterdomain.BuildingReadingResponse, error) {
	phase := strings.ToUpper(strings.TrimSpace(req.Phase))
	if phase != meterdomain.PhaseSingle && phase != meterdomain.PhaseThree {
		return nil, meterdomain.ErrInvalidPhase
	}
	if (req.Previous != nil && *req.Previous < 0) || (req.Current != nil && *req.Current < 0) {
		return nil, meterdomain.ErrNegativeReading
	}

	period, err := s.CurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}

	row, err := s.findBuildingReading(ctx, s.db, phase, period)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &meterdomain.BuildingMeterReading{
			ID:    s.genID.Generate(),
			Phase: phase,
			Month: period.Month,
			Year:  period.Year,
		}
	}

	if req.Previous != nil {
		row.Previous = *req.Previous
	}
	if req.Current != nil {
		row.Current = *req.Current
	}
	row.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}

	resp := toBuildingResponse(row)
	return &resp, nil
}

func (s *Service) ListRoomReadings(ctx context.Context) ([]meterdomain.RoomReadingResponse, error) {
	period, err := s.CurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}

	// Every apartment shows up, with a zero register until the operator
	// enters a reading. Empty rooms need readings too.
	var apartments []apartmentdomain.Apartment
	if err := s.db.WithContext(ctx).Order("room_number ASC").Find(&apartments).Error; err != nil {
		return nil, err
	}

	var rows []meterdomain.RoomMeterReading
	if err := s.db.WithContext(ctx).
		Where("month = ? AND year = ?", period.Month, period.Year).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byApartment := make(map[snowflake.ID]*meterdomain.RoomMeterReading, len(rows))
	for i := range rows {
		byApartment[rows[i].ApartmentID] = &rows[i]
	}

	resp := make([]meterdomain.RoomReadingResponse, 0, len(apartments))
	for _, apartment := range apartments {
		if row, ok := byApartment[apartment.ID]; ok {
			resp = append(resp, toRoomResponse(row))
			continue
		}
		resp = append(resp, meterdomain.RoomReadingResponse{
			ApartmentID: apartment.ID.String(),
			Month:       period.Month,
			Year:        period.Year,
		})
	}
	return resp, nil
}

func (s *Service) UpsertRoomReading(ctx context.Context, req meterdomain.UpsertRoomRequest) (*meterdomain.RoomReadingResponse, error) {
	apartmentID, err := meterdomain.ParseID(strings.TrimSpace(req.ApartmentID))
	if err != nil {
		return nil, meterdomain.ErrInvalidApartment
	}
	if (req.Previous != nil && *req.Previous < 0) ||
		(req.Current != nil && *req.Current < 0) ||
		(req.Usage != nil && *req.Usage < 0) {
		return nil, meterdomain.ErrNegativeReading
	}
	// Current and usage are two views of the same register; editing both in
	// one request has no single consistent answer.
	if req.Current != nil && req.Usage != nil {
		return nil, meterdomain.ErrAmbiguousUsage
	}

	var apartment apartmentdomain.Apartment
	if err := s.db.WithContext(ctx).Where("id = ?", apartmentID).First(&apartment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, meterdomain.ErrUnknownApartment
		}
		return nil, err
	}

	period, err := s.CurrentPeriod(ctx)
	if err != nil {
		return nil, err
	}

	row, err := s.findRoomReading(ctx, s.db, apartmentID, period)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &meterdomain.RoomMeterReading{
			ID:          s.genID.Generate(),
			ApartmentID: apartmentID,
			Month:       period.Month,
			Year:        period.Year,
		}
	}

	if req.Previous != nil {
		row.Previous = *req.Previous
	}
	switch {
	case req.Usage != nil:
		// Editing usage recomputes the current register.
		row.Usage = *req.Usage
		row.Current = row.Previous + *req.Usage
	case req.Current != nil:
		row.Current = *req.Current
		row.Usage = consumption(row.Previous, row.Current)
	default:
		// Previous moved; usage follows.
		row.Usage = consumption(row.Previous, row.Current)
	}
	row.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}

	resp := toRoomResponse(row)
	return &resp, nil
}

func (s *Service) Snapshot(ctx context.Context) (engine.MeterState, error) {
	return s.snapshotTx(ctx, s.db)
}

func (s *Service) snapshotTx(ctx context.Context, tx *gorm.DB) (engine.MeterState, error) {
	period, err := s.currentPeriodTx(ctx, tx)
	if err != nil {
		return engine.MeterState{}, err
	}

	state := engine.MeterState{Period: period}

	var buildingRows []meterdomain.BuildingMeterReading
	if err := tx.WithContext(ctx).
		Where("month = ? AND year = ?", period.Month, period.Year).
		Find(&buildingRows).Error; err != nil {
		return engine.MeterState{}, err
	}
	for _, row := range buildingRows {
		reading := engine.Reading{Previous: row.Previous, Current: row.Current}
		switch row.Phase {
		case meterdomain.PhaseSingle:
			state.Building.SinglePhase = reading
		case meterdomain.PhaseThree:
			state.Building.ThreePhase = reading
		}
	}

	var apartments []apartmentdomain.Apartment
	if err := tx.WithContext(ctx).Find(&apartments).Error; err != nil {
		return engine.MeterState{}, err
	}

	var roomRows []meterdomain.RoomMeterReading
	if err := tx.WithContext(ctx).
		Where("month = ? AND year = ?", period.Month, period.Year).
		Find(&roomRows).Error; err != nil {
		return engine.MeterState{}, err
	}
	readingByApartment := make(map[snowflake.ID]engine.Reading, len(roomRows))
	for _, row := range roomRows {
		readingByApartment[row.ApartmentID] = engine.Reading{Previous: row.Previous, Current: row.Current}
	}

	state.Rooms = make([]engine.RoomMeter, 0, len(apartments))
	for _, apartment := range apartments {
		state.Rooms = append(state.Rooms, engine.RoomMeter{
			ApartmentID: apartment.ID,
			Reading:     readingByApartment[apartment.ID],
		})
	}

	return state, nil
}

func (s *Service) Rollover(ctx context.Context) (engine.Period, error) {
	var nextPeriod engine.Period
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := s.snapshotTx(ctx, tx)
		if err != nil {
			return err
		}

		next := engine.Rollover(state)
		now := time.Now().UTC()

		for phase, reading := range map[string]engine.Reading{
			meterdomain.PhaseSingle: next.Building.SinglePhase,
			meterdomain.PhaseThree:  next.Building.ThreePhase,
		} {
			row := meterdomain.BuildingMeterReading{
				ID:        s.genID.Generate(),
				Phase:     phase,
				Month:     next.Period.Month,
				Year:      next.Period.Year,
				Previous:  reading.Previous,
				Current:   reading.Current,
				UpdatedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, room := range next.Rooms {
			row := meterdomain.RoomMeterReading{
				ID:          s.genID.Generate(),
				ApartmentID: room.ApartmentID,
				Month:       next.Period.Month,
				Year:        next.Period.Year,
				Previous:    room.Previous,
				Current:     room.Current,
				Usage:       0,
				UpdatedAt:   now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&meterdomain.BillingPeriod{}).
			Where("id = ?", meterdomain.PeriodRowID).
			Updates(map[string]any{
				"month":      next.Period.Month,
				"year":       next.Period.Year,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		nextPeriod = next.Period
		return nil
	})
	if err != nil {
		return engine.Period{}, err
	}

	s.metrics.IncRollover()
	s.log.Info("billing period rolled over",
		zap.Int("month", nextPeriod.Month),
		zap.Int("year", nextPeriod.Year),
	)
	return nextPeriod, nil
}

func (s *Service) findBuildingReading(ctx context.Context, tx *gorm.DB, phase string, period engine.Period) (*meterdomain.BuildingMeterReading, error) {
	var row meterdomain.BuildingMeterReading
	err := tx.WithContext(ctx).
		Where("phase = ? AND month = ? AND year = ?", phase, period.Month, period.Year).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) findRoomReading(ctx context.Context, tx *gorm.DB, apartmentID snowflake.ID, period engine.Period) (*meterdomain.RoomMeterReading, error) {
	var row meterdomain.RoomMeterReading
	err := tx.WithContext(ctx).
		Where("apartment_id = ? AND month = ? AND year = ?", apartmentID, period.Month, period.Year).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func consumption(previous, current int64) int64 {
	if current <= previous {
		return 0
	}
	return current - previous
}

func toBuildingResponse(row *meterdomain.BuildingMeterReading) meterdomain.BuildingReadingResponse {
	return meterdomain.BuildingReadingResponse{
		Phase:       row.Phase,
		Month:       row.Month,
		Year:        row.Year,
		Previous:    row.Previous,
		Current:     row.Current,
		Consumption: consumption(row.Previous, row.Current),
		UpdatedAt:   row.UpdatedAt,
	}
}

func toRoomResponse(row *meterdomain.RoomMeterReading) meterdomain.RoomReadingResponse {
	return meterdomain.RoomReadingResponse{
		ApartmentID: row.ApartmentID.String(),
		Month:       row.Month,
		Year:        row.Year,
		Previous:    row.Previous,
		Current:     row.Current,
		Usage:       row.Usage,
		UpdatedAt:   row.UpdatedAt,
	}
}
