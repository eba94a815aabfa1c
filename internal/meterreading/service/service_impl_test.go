package service

import (
	"context"
	"testing"

	apartmentdomain "nhatro/internal/apartment/domain"
	meterdomain "nhatro/internal/meterreading/domain"
	"nhatro/internal/metrics"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T) (meterdomain.Service, *gorm.DB, *apartmentdomain.Apartment) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&apartmentdomain.Apartment{},
		&meterdomain.BillingPeriod{},
		&meterdomain.BuildingMeterReading{},
		&meterdomain.RoomMeterReading{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	require.NoError(t, db.Create(&meterdomain.BillingPeriod{
		ID:    meterdomain.PeriodRowID,
		Month: 3,
		Year:  2026,
	}).Error)

	apartment := &apartmentdomain.Apartment{
		ID:          node.Generate(),
		RoomNumber:  "101",
		Floor:       1,
		DefaultRent: 3000000,
	}
	require.NoError(t, db.Create(apartment).Error)

	svc := New(Params{DB: db, Log: zap.NewNop(), GenID: node})
	return svc, db, apartment
}

func int64p(v int64) *int64 { return &v }

func TestUpsertBuildingReading(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	resp, err := svc.UpsertBuildingReading(ctx, meterdomain.UpsertBuildingRequest{
		Phase:    "single",
		Previous: int64p(1000),
		Current:  int64p(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, meterdomain.PhaseSingle, resp.Phase)
	assert.Equal(t, int64(500), resp.Consumption)
	assert.Equal(t, 3, resp.Month)

	// partial edit keeps the other register
	resp, err = svc.UpsertBuildingReading(ctx, meterdomain.UpsertBuildingRequest{
		Phase:   "SINGLE",
		Current: int64p(1600),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), resp.Previous)
	assert.Equal(t, int64(600), resp.Consumption)

	_, err = svc.UpsertBuildingReading(ctx, meterdomain.UpsertBuildingRequest{Phase: "DUAL"})
	assert.ErrorIs(t, err, meterdomain.ErrInvalidPhase)

	_, err = svc.UpsertBuildingReading(ctx, meterdomain.UpsertBuildingRequest{
		Phase:    "THREE",
		Previous: int64p(-1),
	})
	assert.ErrorIs(t, err, meterdomain.ErrNegativeReading)
}

func TestUpsertRoomReading_BidirectionalEdit(t *testing.T) {
	svc, _, apartment := newService(t)
	ctx := context.Background()

	// previous/current edit derives usage
	resp, err := svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Previous:    int64p(100),
		Current:     int64p(150),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.Usage)

	// usage edit recomputes current
	resp, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Usage:       int64p(80),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), resp.Previous)
	assert.Equal(t, int64(180), resp.Current)
	assert.Equal(t, int64(80), resp.Usage)

	// moving previous alone re-derives usage from the stored current
	resp, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Previous:    int64p(120),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), resp.Usage)
}

func TestUpsertRoomReading_Validation(t *testing.T) {
	svc, _, apartment := newService(t)
	ctx := context.Background()

	_, err := svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Current:     int64p(200),
		Usage:       int64p(50),
	})
	assert.ErrorIs(t, err, meterdomain.ErrAmbiguousUsage)

	_, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: "not-an-id",
		Current:     int64p(200),
	})
	assert.ErrorIs(t, err, meterdomain.ErrInvalidApartment)

	_, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: snowflake.ID(9999).String(),
		Current:     int64p(200),
	})
	assert.ErrorIs(t, err, meterdomain.ErrUnknownApartment)

	_, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Usage:       int64p(-5),
	})
	assert.ErrorIs(t, err, meterdomain.ErrNegativeReading)
}

func TestUpsertRoomReading_RegressionReadsAsZeroUsage(t *testing.T) {
	svc, _, apartment := newService(t)
	ctx := context.Background()

	// meter replacement: current below previous
	resp, err := svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Previous:    int64p(900),
		Current:     int64p(10),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Usage)
}

func TestListRoomReadings_IncludesRoomsWithoutReadings(t *testing.T) {
	svc, db, apartment := newService(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	require.NoError(t, db.Create(&apartmentdomain.Apartment{
		ID:          node.Generate(),
		RoomNumber:  "102",
		Floor:       1,
		DefaultRent: 2500000,
	}).Error)

	_, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Previous:    int64p(100),
		Current:     int64p(150),
	})
	require.NoError(t, err)

	resp, err := svc.ListRoomReadings(ctx)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, int64(50), resp[0].Usage)
	assert.Equal(t, int64(0), resp[1].Usage)
}

func TestRollover(t *testing.T) {
	svc, db, apartment := newService(t)
	ctx := context.Background()

	_, err := svc.UpsertBuildingReading(ctx, meterdomain.UpsertBuildingRequest{
		Phase:    "SINGLE",
		Previous: int64p(1000),
		Current:  int64p(1500),
	})
	require.NoError(t, err)
	_, err = svc.UpsertRoomReading(ctx, meterdomain.UpsertRoomRequest{
		ApartmentID: apartment.ID.String(),
		Previous:    int64p(100),
		Current:     int64p(150),
	})
	require.NoError(t, err)

	rolloversBefore := testutil.ToFloat64(metrics.Billing().RolloverCounter())

	next, err := svc.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, next.Month)
	assert.Equal(t, 2026, next.Year)
	assert.Equal(t, rolloversBefore+1, testutil.ToFloat64(metrics.Billing().RolloverCounter()))

	period, err := svc.CurrentPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, period.Month)

	// closing registers become the new period's opening ones
	var row meterdomain.RoomMeterReading
	require.NoError(t, db.
		Where("apartment_id = ? AND month = ? AND year = ?", apartment.ID, 4, 2026).
		First(&row).Error)
	assert.Equal(t, int64(150), row.Previous)
	assert.Equal(t, int64(0), row.Current)
	assert.Equal(t, int64(0), row.Usage)

	var building meterdomain.BuildingMeterReading
	require.NoError(t, db.
		Where("phase = ? AND month = ? AND year = ?", meterdomain.PhaseSingle, 4, 2026).
		First(&building).Error)
	assert.Equal(t, int64(1500), building.Previous)
	assert.Equal(t, int64(0), building.Current)

	// prior period rows are untouched
	var march meterdomain.RoomMeterReading
	require.NoError(t, db.
		Where("apartment_id = ? AND month = ? AND year = ?", apartment.ID, 3, 2026).
		First(&march).Error)
	assert.Equal(t, int64(50), march.Usage)
}

func TestRolloverDecemberBumpsYear(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, db.Model(&meterdomain.BillingPeriod{}).
		Where("id = ?", meterdomain.PeriodRowID).
		Updates(map[string]any{"month": 12, "year": 2026}).Error)

	next, err := svc.Rollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Month)
	assert.Equal(t, 2027, next.Year)
}
