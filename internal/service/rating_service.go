package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultRankLimit = 10
	MaxRankLimit     = 100
)

type RankOrder string

const (
	RankHighest RankOrder = "highest"
	RankLowest  RankOrder = "lowest"
)

func ParseRankOrder(s string) (RankOrder, bool) {
	switch o := RankOrder(strings.ToLower(s)); o {
	case RankHighest, RankLowest:
		return o, true
	}
	return "", false
}

// WorkerRating is the rating aggregate of a single worker.
type WorkerRating struct {
	WorkerID      string  `json:"workerId"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}

// RatingCache stores rating aggregates between requests. Implementations
// swallow their own failures: a miss is always a safe answer.
//
// Generation is bumped by every Invalidate. Writers read it before loading
// from the database and pass it back to Set*, which store nothing once the
// generation has moved on.
type RatingCache interface {
	Generation(ctx context.Context) int64
	GetWorkerRating(ctx context.Context, workerID string) (WorkerRating, bool)
	SetWorkerRating(ctx context.Context, generation int64, rating WorkerRating)
	GetRanking(ctx context.Context, order RankOrder, limit int) ([]WorkerRating, bool)
	SetRanking(ctx context.Context, generation int64, order RankOrder, limit int, ranking []WorkerRating)
	Invalidate(ctx context.Context, workerID string)
}

type CreateReviewInput struct {
	WorkerID  string
	UserID    string
	BookingID string
	Comment   string
	Rating    int
}

type RatingService interface {
	CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error)
	AverageRating(ctx context.Context, workerID string) (float64, error)
	ReviewCount(ctx context.Context, workerID string) (int64, error)
	RankWorkers(ctx context.Context, order RankOrder, limit int) ([]WorkerRating, error)
}

type ratingService struct {
	reviewRepo  repository.ReviewRepository
	bookingRepo repository.BookingRepository
	cache       RatingCache
	log         *zap.Logger
}

// NewRatingService wires the aggregator; cache may be nil.
func NewRatingService(reviewRepo repository.ReviewRepository, bookingRepo repository.BookingRepository, cache RatingCache, log *zap.Logger) RatingService {
	if cache == nil {
		cache = noopRatingCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ratingService{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		cache:       cache,
		log:         log,
	}
}

func (s *ratingService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, invalid("rating", "must be an integer between %d and %d", models.MinRating, models.MaxRating)
	}

	booking, err := s.bookingRepo.FindByID(ctx, in.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking.WorkerID != in.WorkerID || booking.UserID != in.UserID {
		return nil, invalid("booking", "does not belong to the given worker and user")
	}
	if booking.Status != models.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}

	exists, err := s.reviewRepo.ExistsForBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &models.Review{
		WorkerID:  in.WorkerID,
		UserID:    in.UserID,
		BookingID: in.BookingID,
		Comment:   strings.TrimSpace(in.Comment),
		Rating:    in.Rating,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// lost a race against another submission for the same booking
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReviewExists
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.cache.Invalidate(ctx, review.WorkerID)
	s.log.Info("review created", zap.String("review_id", review.ID), zap.String("worker_id", review.WorkerID), zap.Int("rating", review.Rating))
	return review, nil
}

func (s *ratingService) AverageRating(ctx context.Context, workerID string) (float64, error) {
	rating, err := s.workerRating(ctx, workerID)
	if err != nil {
		return 0, err
	}
	return rating.AverageRating, nil
}

func (s *ratingService) ReviewCount(ctx context.Context, workerID string) (int64, error) {
	rating, err := s.workerRating(ctx, workerID)
	if err != nil {
		return 0, err
	}
	return rating.ReviewCount, nil
}

func (s *ratingService) workerRating(ctx context.Context, workerID string) (WorkerRating, error) {
	if cached, ok := s.cache.GetWorkerRating(ctx, workerID); ok {
		return cached, nil
	}

	generation := s.cache.Generation(ctx)
	stats, err := s.reviewRepo.StatsForWorker(ctx, workerID)
	if err != nil {
		return WorkerRating{}, fmt.Errorf("aggregate reviews: %w", err)
	}

	rating := toWorkerRating(stats)
	s.cache.SetWorkerRating(ctx, generation, rating)
	return rating, nil
}

// RankWorkers orders reviewed workers by their exact mean rating; equal means
// fall back to worker ID ascending. AverageRating in the result is rounded to
// one decimal, so two workers shown with the same average may still be ordered
// by their unrounded means rather than by ID.
func (s *ratingService) RankWorkers(ctx context.Context, order RankOrder, limit int) ([]WorkerRating, error) {
	if order != RankHighest && order != RankLowest {
		return nil, invalid("order", "must be highest or lowest")
	}
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	limit = min(limit, MaxRankLimit)

	if cached, ok := s.cache.GetRanking(ctx, order, limit); ok {
		return cached, nil
	}

	generation := s.cache.Generation(ctx)
	stats, err := s.reviewRepo.StatsByWorker(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate reviews: %w", err)
	}

	slices.SortStableFunc(stats, func(a, b repository.RatingStats) int {
		// compare sumA/countA with sumB/countB without leaving integers
		c := cmp.Compare(a.Sum*b.Count, b.Sum*a.Count)
		if order == RankHighest {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.WorkerID, b.WorkerID)
	})

	ranking := make([]WorkerRating, 0, min(limit, len(stats)))
	for _, st := range stats {
		if st.Count == 0 {
			continue
		}
		ranking = append(ranking, toWorkerRating(st))
		if len(ranking) == limit {
			break
		}
	}

	s.cache.SetRanking(ctx, generation, order, limit, ranking)
	return ranking, nil
}

func toWorkerRating(st repository.RatingStats) WorkerRating {
	return WorkerRating{
		WorkerID:      st.WorkerID,
		AverageRating: averageOf(st.Sum, st.Count),
		ReviewCount:   st.Count,
	}
}

// averageOf rounds to one decimal; an empty set averages to 0.
func averageOf(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

type noopRatingCache struct{}

func (noopRatingCache) Generation(context.Context) int64 { return 0 }
func (noopRatingCache) GetWorkerRating(context.Context, string) (WorkerRating, bool) {
	return WorkerRating{}, false
}
func (noopRatingCache) SetWorkerRating(context.Context, int64, WorkerRating) {}
func (noopRatingCache) GetRanking(context.Context, RankOrder, int) ([]WorkerRating, bool) {
	return nil, false
}
func (noopRatingCache) SetRanking(context.Context, int64, RankOrder, int, []WorkerRating) {}
func (noopRatingCache) Invalidate(context.Context, string) {}
