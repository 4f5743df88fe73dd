// Package testfixtures provides storage and seed helpers shared by package tests.
package testfixtures

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated SQLite database in a temporary directory.
// A single connection is used, so transactions are fully serialized.
func NewSQLiteDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduling.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate: %v", err)
	}

	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Date returns midnight UTC of the given calendar day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SeedWorker(tb testing.TB, db *gorm.DB, id string) *models.Worker {
	tb.Helper()
	w := &models.Worker{ID: id, Name: "Lucía", LastName: "Fernández", Profession: "plumber"}
	if err := db.Create(w).Error; err != nil {
		tb.Fatalf("failed to seed worker: %v", err)
	}
	return w
}

func SeedUser(tb testing.TB, db *gorm.DB, id string) *models.User {
	tb.Helper()
	u := &models.User{ID: id, Name: "Mateo", LastName: "Gómez", Email: id + "@example.com"}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("failed to seed user: %v", err)
	}
	return u
}

// SeedBooking inserts a booking directly, bypassing capacity checks.
func SeedBooking(tb testing.TB, db *gorm.DB, workerID, userID string, start, end time.Time, hours float64, status models.BookingStatus) *models.Booking {
	tb.Helper()
	days := int(end.Sub(start)/(24*time.Hour)) + 1
	b := &models.Booking{
		WorkerID:    workerID,
		UserID:      userID,
		StartDate:   start,
		EndDate:     end,
		HoursPerDay: hours,
		TotalHours:  float64(days) * hours,
		Status:      status,
		Completed:   status == models.StatusCompleted,
	}
	if err := db.Create(b).Error; err != nil {
		tb.Fatalf("failed to seed booking: %v", err)
	}
	return b
}

func SeedReview(tb testing.TB, db *gorm.DB, workerID, userID, bookingID string, rating int) *models.Review {
	tb.Helper()
	r := &models.Review{WorkerID: workerID, UserID: userID, BookingID: bookingID, Rating: rating}
	if err := db.Create(r).Error; err != nil {
		tb.Fatalf("failed to seed review: %v", err)
	}
	return r
}
