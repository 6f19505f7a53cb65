package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/conambiente/conambiente-backend/internal/engine"
)

// Pool runs a fixed number of goroutines that send newsletter jobs.
// With one worker, sends are strictly sequential.
type Pool struct {
	numWorkers int
	jobs       chan engine.NewsletterJob
	deliverer  *Deliverer
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, deliverer *Deliverer, logger *slog.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan engine.NewsletterJob, numWorkers*2),
		deliverer:  deliverer,
		logger:     logger,
	}
}

// Start launches the workers. They read from the jobs channel until it is
// closed or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info("newsletter worker pool started", "num_workers", p.numWorkers)
}

func (p *Pool) Submit(job engine.NewsletterJob) {
	p.jobs <- job
}

// Stop closes the jobs channel and waits for the workers to drain it.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("newsletter worker pool stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-ctx.Done():
			p.logger.Warn("worker stopping, job not sent", "worker", id, "email", job.Email, "news_id", job.NewsID)
			return
		default:
			p.deliverer.Deliver(ctx, job)
		}
	}
}
