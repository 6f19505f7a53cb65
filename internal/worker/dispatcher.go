package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/conambiente/conambiente-backend/internal/engine"
	"github.com/redis/go-redis/v9"
)

// Dispatcher polls the newsletter queue and hands ready jobs to the pool.
type Dispatcher struct {
	redisClient  *redis.Client
	pool         *Pool
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int64
}

func NewDispatcher(redisClient *redis.Client, pool *Pool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		redisClient:  redisClient,
		pool:         pool,
		logger:       logger,
		pollInterval: 200 * time.Millisecond,
		batchSize:    10,
	}
}

// Start runs the polling loop until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("newsletter dispatcher started")

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("newsletter dispatcher stopping")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

// poll claims up to batchSize ready jobs and submits them. Returns how many
// were submitted.
func (d *Dispatcher) poll(ctx context.Context) int {
	now := float64(time.Now().UnixMicro())

	results, err := d.redisClient.ZRangeByScoreWithScores(ctx, engine.NewsletterQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   formatFloat(now),
		Count: d.batchSize,
	}).Result()
	if err != nil {
		d.logger.Error("failed to poll newsletter queue", "error", err)
		return 0
	}

	submitted := 0
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		// ZRem is the claim: only one instance gets 1 back.
		removed, err := d.redisClient.ZRem(ctx, engine.NewsletterQueueKey, member).Result()
		if err != nil {
			d.logger.Error("failed to remove job from queue", "error", err)
			continue
		}
		if removed == 0 {
			continue
		}

		var job engine.NewsletterJob
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			d.logger.Error("dropping malformed newsletter job", "error", err)
			continue
		}

		d.pool.Submit(job)
		submitted++
	}
	return submitted
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
