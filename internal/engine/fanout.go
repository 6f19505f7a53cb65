package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const NewsletterQueueKey = "newsletter_queue"

// NewsletterJob is one newsletter email for one subscriber, queued in Redis.
// It carries a snapshot of the news item so later edits do not change mail
// already queued.
type NewsletterJob struct {
	NewsID    string `json:"news_id"`
	Email     string `json:"email"`
	Titulo    string `json:"titulo"`
	Resumen   string `json:"resumen"`
	Fecha     string `json:"fecha"`
	ImagenURL string `json:"imagen_url"`
}

// SubscriberLister returns the addresses a newsletter goes to.
type SubscriberLister interface {
	ListActiveSubscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// Broadcaster turns a newly created news item into one queued job per active
// subscriber.
type Broadcaster struct {
	subscribers SubscriberLister
	redisClient *redis.Client
	logger      *slog.Logger
	timeout     time.Duration
	wg          sync.WaitGroup
}

func NewBroadcaster(subscribers SubscriberLister, redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subscribers: subscribers,
		redisClient: redisClient,
		logger:      logger,
		timeout:     30 * time.Second,
	}
}

// Announce fans the news item out in the background. The caller never waits
// for it and never sees its errors; they are logged.
func (b *Broadcaster) Announce(news domain.News) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if _, err := b.FanOut(ctx, &news); err != nil {
			b.logger.Error("newsletter fan-out failed", "error", err, "news_id", news.ID)
		}
	}()
}

// Wait blocks until every Announce in flight has finished queuing.
func (b *Broadcaster) Wait() {
	b.wg.Wait()
}

// FanOut queues one job per active subscriber and returns how many were queued.
func (b *Broadcaster) FanOut(ctx context.Context, news *domain.News) (int, error) {
	subscribers, err := b.subscribers.ListActiveSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing active subscribers: %w", err)
	}

	if len(subscribers) == 0 {
		b.logger.Info("no active subscribers", "news_id", news.ID)
		return 0, nil
	}

	jobs := make([]NewsletterJob, 0, len(subscribers))
	for _, sub := range subscribers {
		jobs = append(jobs, NewsletterJob{
			NewsID:    news.ID,
			Email:     sub.Email,
			Titulo:    news.Titulo,
			Resumen:   news.Resumen,
			Fecha:     news.Fecha,
			ImagenURL: news.ImagenURL,
		})
	}

	if err := Enqueue(ctx, b.redisClient, time.Now(), jobs...); err != nil {
		return 0, err
	}

	b.logger.Info("newsletter fan-out complete",
		"news_id", news.ID,
		"jobs_queued", len(jobs),
	)
	return len(jobs), nil
}

// Enqueue adds jobs to the queue, ready from at onwards.
func Enqueue(ctx context.Context, client *redis.Client, at time.Time, jobs ...NewsletterJob) error {
	pipe := client.Pipeline()

	for _, job := range jobs {
		jobBytes, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshaling job for %s: %w", job.Email, err)
		}
		pipe.ZAdd(ctx, NewsletterQueueKey, redis.Z{
			Score:  float64(at.UnixMicro()),
			Member: string(jobBytes),
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queuing newsletter jobs to redis: %w", err)
	}
	return nil
}

// QueueDepth returns the number of newsletter jobs waiting to be sent.
func QueueDepth(ctx context.Context, client *redis.Client) (int64, error) {
	return client.ZCard(ctx, NewsletterQueueKey).Result()
}
