// Package testutil opens throwaway in-memory SQLite datastores shaped like the
// production ones.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var counter int64

func memoryDSN(t *testing.T, kind string) string {
	n := atomic.AddInt64(&counter, 1)
	return fmt.Sprintf("file:%s_%s_%d?mode=memory&cache=shared&_foreign_keys=1", kind, sanitize(t.Name()), n)
}

func sanitize(name string) string {
	out := []byte(name)
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			out[i] = '_'
		}
	}
	return string(out)
}

// SuperadminDB returns a migrated superadmin datastore
func SuperadminDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(memoryDSN(t, "superadmin")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.NewGORMStore(db).Init())
	return db
}

// PrimaryStore returns an initialized primary datastore
func PrimaryStore(t *testing.T) *database.PostgreSQLStore {
	t.Helper()

	db, err := sqlx.Open("sqlite3", memoryDSN(t, "primary"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := database.NewPostgreSQLStore(db)
	require.NoError(t, store.Init())
	return store
}

// CreateSuperAdmin inserts an active account with the given role
func CreateSuperAdmin(t *testing.T, db *gorm.DB, email, password, role string) *model.SuperAdmin {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	admin := &model.SuperAdmin{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test Admin",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}
