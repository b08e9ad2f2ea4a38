// Package storetest opens throwaway in-memory databases for tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lalitkumar100/mediCude-backend/internal/store"
	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

// NewDB opens a private in-memory SQLite database. A single connection keeps
// every query of the test on the same database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// NewStore opens a migrated store with a few pharmacy tables for model-authored SQL.
func NewStore(t testing.TB) (*store.Store, *gorm.DB) {
	t.Helper()

	db := NewDB(t)
	s := store.New(db, logger.NewNop())
	require.NoError(t, s.Migrate(context.Background()))

	for _, stmt := range []string{
		`CREATE TABLE medicine_stock (medicine_name TEXT NOT NULL, batch_no TEXT, stock_quantity INTEGER NOT NULL, expiry_date TEXT)`,
		`INSERT INTO medicine_stock VALUES ('Paracetamol 500', 'B-101', 120, '2026-12-01')`,
		`INSERT INTO medicine_stock VALUES ('Amoxicillin 250', 'B-202', 8, '2026-11-15')`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return s, db
}
