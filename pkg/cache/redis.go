package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/manos-expertas/scheduling-service/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	workerKeyPrefix = "ratings:worker:"
	rankingKey      = "ratings:ranking"
	generationKey   = "ratings:generation"
)

// errStale aborts a cache write whose source data predates an invalidation.
var errStale = errors.New("rating cache generation moved")

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RatingCache keeps per-worker aggregates under their own keys and all
// rankings in one hash, so a new review clears every ranking at once.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ service.RatingCache = (*RatingCache)(nil)

func NewRatingCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RatingCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RatingCache{client: client, ttl: ttl, log: log}
}

// Generation returns the current invalidation counter. When Redis cannot be
// read it returns -1, which no later write will match.
func (c *RatingCache) Generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		c.log.Warn("rating cache: get generation", zap.Error(err))
		return -1
	}
	return gen
}

func (c *RatingCache) GetWorkerRating(ctx context.Context, workerID string) (service.WorkerRating, bool) {
	var rating service.WorkerRating
	data, err := c.client.Get(ctx, workerKeyPrefix+workerID).Bytes()
	if !c.hit(err, "get worker rating") {
		return rating, false
	}
	if err := json.Unmarshal(data, &rating); err != nil {
		c.log.Warn("rating cache: corrupt worker entry", zap.String("worker_id", workerID), zap.Error(err))
		return rating, false
	}
	return rating, true
}

func (c *RatingCache) SetWorkerRating(ctx context.Context, generation int64, rating service.WorkerRating) {
	data, err := json.Marshal(rating)
	if err != nil {
		return
	}
	c.setIfCurrent(ctx, generation, "set worker rating", func(pipe redis.Pipeliner) {
		pipe.Set(ctx, workerKeyPrefix+rating.WorkerID, data, c.ttl)
	})
}

func (c *RatingCache) GetRanking(ctx context.Context, order service.RankOrder, limit int) ([]service.WorkerRating, bool) {
	data, err := c.client.HGet(ctx, rankingKey, rankingField(order, limit)).Bytes()
	if !c.hit(err, "get ranking") {
		return nil, false
	}
	var ranking []service.WorkerRating
	if err := json.Unmarshal(data, &ranking); err != nil {
		c.log.Warn("rating cache: corrupt ranking entry", zap.Error(err))
		return nil, false
	}
	return ranking, true
}

func (c *RatingCache) SetRanking(ctx context.Context, generation int64, order service.RankOrder, limit int, ranking []service.WorkerRating) {
	data, err := json.Marshal(ranking)
	if err != nil {
		return
	}
	c.setIfCurrent(ctx, generation, "set ranking", func(pipe redis.Pipeliner) {
		pipe.HSet(ctx, rankingKey, rankingField(order, limit), data)
		pipe.Expire(ctx, rankingKey, c.ttl)
	})
}

// Invalidate bumps the generation before dropping the entries, so a reader
// that loaded its aggregate earlier cannot put it back.
func (c *RatingCache) Invalidate(ctx context.Context, workerID string) {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, generationKey)
	pipe.Del(ctx, workerKeyPrefix+workerID, rankingKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("rating cache: invalidate", zap.String("worker_id", workerID), zap.Error(err))
	}
}

// setIfCurrent runs write in a MULTI guarded by WATCH on the generation key.
func (c *RatingCache) setIfCurrent(ctx context.Context, generation int64, op string, write func(pipe redis.Pipeliner)) {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("rating cache: skipped stale write", zap.String("op", op))
	default:
		c.log.Warn("rating cache: "+op, zap.Error(err))
	}
}

func (c *RatingCache) hit(err error, op string) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn("rating cache: "+op, zap.Error(err))
	}
	return false
}

func rankingField(order service.RankOrder, limit int) string {
	return fmt.Sprintf("%s:%d", order, limit)
}
