package api

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status          string            `json:"status"`
	Version         string            `json:"version"`
	Checks          map[string]string `json:"checks"`
	NewsletterQueue *int64            `json:"newsletterQueue,omitempty"`
}

// QueueDepthFunc reports how many newsletter deliveries are waiting.
type QueueDepthFunc func(ctx context.Context) (int64, error)

// HealthHandler pings every dependency; any failure degrades the status.
// When queue is set the pending newsletter backlog is reported too.
func HealthHandler(deps map[string]Pinger, queue QueueDepthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:  "healthy",
			Version: "1.0.0",
			Checks:  make(map[string]string, len(deps)),
		}
		status := http.StatusOK

		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		if queue != nil {
			if depth, err := queue(ctx); err == nil {
				resp.NewsletterQueue = &depth
			}
		}

		respondJSON(w, status, resp)
	}
}

func bannerHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("API de Conambiente funcionando"))
}
