// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"agora/internal/database"
	"agora/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database with the full schema.
// A single connection keeps the in-memory database alive and serializes
// transactions.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:agora_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// MakeUser inserts a user with the given role and membership flag.
func MakeUser(t *testing.T, db *gorm.DB, name string, role models.Role, private bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:      name,
		Email:         name + "@example.com",
		Password:      "x",
		Role:          role,
		PrivateMember: private,
	}
	require.NoError(t, db.Create(u).Error)
	if !private {
		// zero values are skipped on insert when a column default exists
		require.NoError(t, db.Model(u).Update("private_member", false).Error)
	}
	return u
}

// MakeChannel inserts a channel.
func MakeChannel(t *testing.T, db *gorm.DB, name string, typ models.ChannelType) *models.Channel {
	t.Helper()
	c := &models.Channel{Name: name, Type: typ}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Reload re-reads dest by primary key.
func Reload(t *testing.T, db *gorm.DB, dest interface{}) {
	t.Helper()
	require.NoError(t, db.First(dest).Error)
}

// Count returns the number of rows of model matching the optional condition.
func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
