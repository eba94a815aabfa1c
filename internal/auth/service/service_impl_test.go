package service

import (
	"context"
	"testing"
	"time"

	authdomain "nhatro/internal/auth/domain"
	"nhatro/internal/clock"
	"nhatro/internal/config"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		Config: config.Config{SessionTTLHours: 72},
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
	})
	return svc, clk
}

func createUser(t *testing.T, svc authdomain.Service, username string, role authdomain.Role) *authdomain.UserView {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Username: username,
		Password: "mat-khau-123",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user := createUser(t, svc, "ChuNha", authdomain.RoleAdmin)
	assert.Equal(t, "chunha", user.Username)
	assert.Equal(t, authdomain.RoleAdmin, user.Role)

	_, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{Username: "chunha", Password: "mat-khau-123"})
	assert.ErrorIs(t, err, authdomain.ErrUserExists)

	_, err = svc.CreateUser(ctx, authdomain.CreateUserRequest{Username: "ab", Password: "mat-khau-123"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = svc.CreateUser(ctx, authdomain.CreateUserRequest{Username: "ngan", Password: "short"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = svc.CreateUser(ctx, authdomain.CreateUserRequest{Username: "ngan", Password: "mat-khau-123", Role: "owner"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidRole)
}

func TestCreateUser_DefaultRole(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Username: "nhanvien",
		Password: "mat-khau-123",
	})
	require.NoError(t, err)
	assert.Equal(t, authdomain.RoleUser, user.Role)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()
	createUser(t, svc, "chunha", authdomain.RoleAdmin)

	_, err := svc.Login(ctx, authdomain.LoginRequest{Username: "chunha", Password: "sai-mat-khau"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, authdomain.LoginRequest{Username: "khong-ton-tai", Password: "mat-khau-123"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	result, err := svc.Login(ctx, authdomain.LoginRequest{Username: "CHUNHA", Password: "mat-khau-123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, clk.Now().Add(72*time.Hour), result.ExpiresAt)

	authed, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, "chunha", authed.User.Username)
	assert.Equal(t, authdomain.RoleAdmin, authed.User.Role)
}

func TestAuthenticate_Expiry(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()
	createUser(t, svc, "chunha", authdomain.RoleAdmin)

	result, err := svc.Login(ctx, authdomain.LoginRequest{Username: "chunha", Password: "mat-khau-123"})
	require.NoError(t, err)

	clk.Advance(73 * time.Hour)
	_, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, authdomain.ErrSessionExpired)
}

func TestLogout(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	createUser(t, svc, "chunha", authdomain.RoleAdmin)

	result, err := svc.Login(ctx, authdomain.LoginRequest{Username: "chunha", Password: "mat-khau-123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.RawToken))

	_, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, authdomain.ErrSessionRevoked)

	assert.ErrorIs(t, svc.Logout(ctx, "bogus-token"), authdomain.ErrInvalidSession)
}

func TestLastAdminGuard(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin := createUser(t, svc, "chunha", authdomain.RoleAdmin)

	_, err := svc.UpdateRole(ctx, admin.ID, authdomain.RoleUser)
	assert.ErrorIs(t, err, authdomain.ErrLastAdmin)
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID), authdomain.ErrLastAdmin)

	second := createUser(t, svc, "quanly", authdomain.RoleAdmin)

	updated, err := svc.UpdateRole(ctx, admin.ID, authdomain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, authdomain.RoleManager, updated.Role)

	// quanly is now the only admin again.
	assert.ErrorIs(t, svc.DeleteUser(ctx, second.ID), authdomain.ErrLastAdmin)
}

func TestDeleteUser_RevokesSessions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	createUser(t, svc, "chunha", authdomain.RoleAdmin)
	user := createUser(t, svc, "nhanvien", authdomain.RoleUser)

	result, err := svc.Login(ctx, authdomain.LoginRequest{Username: "nhanvien", Password: "mat-khau-123"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	user := createUser(t, svc, "chunha", authdomain.RoleAdmin)

	assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "short"), authdomain.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "mat-khau-moi-456"))

	_, err := svc.Login(ctx, authdomain.LoginRequest{Username: "chunha", Password: "mat-khau-123"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	result, err := svc.Login(ctx, authdomain.LoginRequest{Username: "chunha", Password: "mat-khau-moi-456"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
}
