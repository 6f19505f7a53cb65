package worker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/conambiente/conambiente-backend/internal/engine"
	"github.com/conambiente/conambiente-backend/internal/mail"
	"github.com/redis/go-redis/v9"
)

// Deliverer sends one newsletter email per job. A failed send is logged
// and dropped; it never affects other recipients.
type Deliverer struct {
	sender        mail.Sender
	composer      *mail.Composer
	redisClient   *redis.Client
	rateLimiter   *engine.RateLimiter
	ratePerSecond int
	publicBaseURL string
	timeout       time.Duration
	logger        *slog.Logger
}

type DelivererConfig struct {
	PublicBaseURL string
	RatePerSecond int
	SendTimeout   time.Duration
}

func NewDeliverer(sender mail.Sender, composer *mail.Composer, redisClient *redis.Client, cfg DelivererConfig, logger *slog.Logger) *Deliverer {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Deliverer{
		sender:        sender,
		composer:      composer,
		redisClient:   redisClient,
		rateLimiter:   engine.NewRateLimiter(redisClient, logger),
		ratePerSecond: cfg.RatePerSecond,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		timeout:       timeout,
		logger:        logger,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, job engine.NewsletterJob) {
	if !d.rateLimiter.Allow(ctx, engine.SMTPRateKey, d.ratePerSecond) {
		d.deferJob(ctx, job)
		return
	}

	start := time.Now()

	msg, err := d.composer.Newsletter(job.Email, mail.NewsletterItem{
		Titulo:   job.Titulo,
		Resumen:  job.Resumen,
		Fecha:    job.Fecha,
		ImageURL: d.imageURL(job.ImagenURL),
	})
	if err != nil {
		d.logger.Error("failed to compose newsletter", "error", err, "email", job.Email, "news_id", job.NewsID)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.logger.Warn("newsletter send failed",
			"email", job.Email,
			"news_id", job.NewsID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	d.logger.Info("newsletter sent",
		"email", job.Email,
		"news_id", job.NewsID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// deferJob puts a rate-limited job back, ready one window later.
func (d *Deliverer) deferJob(ctx context.Context, job engine.NewsletterJob) {
	if err := engine.Enqueue(ctx, d.redisClient, time.Now().Add(time.Second), job); err != nil {
		d.logger.Error("failed to requeue rate-limited job, dropping",
			"error", err,
			"email", job.Email,
			"news_id", job.NewsID,
		)
	}
}

// imageURL makes a stored image path absolute. Absolute URLs pass through.
func (d *Deliverer) imageURL(path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return d.publicBaseURL + path
	default:
		return d.publicBaseURL + "/" + path
	}
}
