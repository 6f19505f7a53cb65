package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBanner(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "API de Conambiente funcionando" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decode[HealthResponse](t, rec); resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}

	env.queue = 7
	rec = env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp := decode[HealthResponse](t, rec); resp.NewsletterQueue == nil || *resp.NewsletterQueue != 7 {
		t.Errorf("newsletterQueue = %v, want 7", resp.NewsletterQueue)
	}

	env.health["redis"] = pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec = env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "degraded" || resp.Checks["postgres"] != "ok" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/noticias", nil)
	req.Header.Set("Origin", "https://conambiente.com")
	rec := env.do(req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://conambiente.com" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/noticias", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = env.do(req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unknown origin should get no CORS header, got %q", got)
	}
}

func TestUploads_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
