package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDbDao 每個測試一個獨立的 in-memory sqlite
func newTestDbDao(t *testing.T) *DbDao {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), NewGormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	dao := NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())
	return dao
}
