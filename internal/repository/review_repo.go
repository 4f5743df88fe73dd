package repository

import (
	"context"

	"github.com/manos-expertas/scheduling-service/internal/models"
	"gorm.io/gorm"
)

// RatingStats is the raw per-worker aggregate of review scores.
type RatingStats struct {
	WorkerID string
	Sum      int64
	Count    int64
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
	StatsForWorker(ctx context.Context, workerID string) (RatingStats, error)
	StatsByWorker(ctx context.Context) ([]RatingStats, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) StatsForWorker(ctx context.Context, workerID string) (RatingStats, error) {
	stats := RatingStats{WorkerID: workerID}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS sum, COUNT(*) AS count").
		Where("worker_id = ?", workerID).
		Row().
		Scan(&stats.Sum, &stats.Count)
	return stats, err
}

// StatsByWorker groups all reviews by worker; workers without reviews are absent.
func (r *reviewRepository) StatsByWorker(ctx context.Context) ([]RatingStats, error) {
	var rows []RatingStats
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("worker_id, SUM(rating) AS sum, COUNT(*) AS count").
		Group("worker_id").
		Order("worker_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
