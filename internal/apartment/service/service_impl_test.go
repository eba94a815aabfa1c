package service

import (
	"context"
	"testing"

	apartmentdomain "nhatro/internal/apartment/domain"
	apartmentrepo "nhatro/internal/apartment/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T) apartmentdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&apartmentdomain.Apartment{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: apartmentrepo.Provide()})
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, apartmentdomain.CreateRequest{RoomNumber: " ", DefaultRent: 100})
	assert.ErrorIs(t, err, apartmentdomain.ErrInvalidRoomNumber)

	_, err = svc.Create(ctx, apartmentdomain.CreateRequest{RoomNumber: "101"})
	assert.ErrorIs(t, err, apartmentdomain.ErrInvalidRent)

	_, err = svc.Create(ctx, apartmentdomain.CreateRequest{RoomNumber: "101", DefaultRent: 3_000_000})
	require.NoError(t, err)
	_, err = svc.Create(ctx, apartmentdomain.CreateRequest{RoomNumber: "101", DefaultRent: 2_000_000})
	assert.ErrorIs(t, err, apartmentdomain.ErrDuplicateRoom)
}

func TestCreateAndUpdateMetadata(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, apartmentdomain.CreateRequest{
		RoomNumber:  "201",
		Floor:       2,
		DefaultRent: 2_800_000,
		Metadata:    datatypes.JSONMap{"huong": "dong nam", "may_lanh": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "dong nam", created.Metadata["huong"])
	assert.Equal(t, true, created.Metadata["may_lanh"])

	updated, err := svc.Update(ctx, apartmentdomain.UpdateRequest{
		ID:       created.ID,
		Metadata: datatypes.JSONMap{"huong": "tay bac"},
	})
	require.NoError(t, err)
	assert.Equal(t, datatypes.JSONMap{"huong": "tay bac"}, updated.Metadata)

	// the map is replaced, not merged
	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Metadata, "may_lanh")
}

func TestCreateDefaultsMetadata(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, apartmentdomain.CreateRequest{
		RoomNumber:  "202",
		DefaultRent: 2_500_000,
	})
	require.NoError(t, err)
	assert.NotNil(t, created.Metadata)
	assert.Empty(t, created.Metadata)
}

func TestUpdateRentOverride(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, apartmentdomain.CreateRequest{
		RoomNumber:  "301",
		DefaultRent: 3_200_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3_200_000), created.MonthlyRent)

	override := int64(2_900_000)
	updated, err := svc.Update(ctx, apartmentdomain.UpdateRequest{
		ID:           created.ID,
		RentOverride: &override,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2_900_000), updated.MonthlyRent)

	cleared, err := svc.Update(ctx, apartmentdomain.UpdateRequest{
		ID:                created.ID,
		ClearRentOverride: true,
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.RentOverride)
	assert.Equal(t, int64(3_200_000), cleared.MonthlyRent)
}
