// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with foreign keys enforced
// and the relational schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Notification{}, &models.Like{}, &models.Comment{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUsers inserts n users named user1..userN.
func SeedUsers(t testing.TB, db *gorm.DB, n int) []models.User {
	t.Helper()

	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{
			Name:     fmt.Sprintf("User %d", i+1),
			Username: fmt.Sprintf("user%d", i+1),
			Email:    fmt.Sprintf("user%d@example.com", i+1),
		}
	}
	require.NoError(t, db.CreateInBatches(&users, 500).Error)
	return users
}

// TickingClock returns a UTC clock that advances one second per call.
func TickingClock() func() time.Time {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}
