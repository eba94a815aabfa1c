package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// The runtime sqlite driver (glebarez) is linked into this test binary, so
// migrations must go through the shared connection without registering a
// second driver named "sqlite".
func TestRunMigrationsSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	require.NoError(t, RunMigrations(sqlDB, "sqlite"))

	var userCount int64
	require.NoError(t, conn.Table("users").Count(&userCount).Error)
	assert.Zero(t, userCount)

	var invoiceCount int64
	require.NoError(t, conn.Table("invoices").Count(&invoiceCount).Error)
	assert.Zero(t, invoiceCount)

	var version int
	var dirty bool
	require.NoError(t, sqlDB.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	assert.Equal(t, 1, version)
	assert.False(t, dirty)

	// already applied, second run is a no-op
	require.NoError(t, RunMigrations(sqlDB, "sqlite"))
}
