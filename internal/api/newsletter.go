package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/conambiente/conambiente-backend/internal/domain"
)

type NewsletterHandler struct {
	store   SubscriberStore
	timeout time.Duration
	logger  *slog.Logger
}

func NewNewsletterHandler(s SubscriberStore, timeout time.Duration, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{store: s, timeout: timeout, logger: logger}
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	email, ok := h.email(w, r)
	if !ok {
		return
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	_, result, err := h.store.Subscribe(ctx, email)
	if err != nil {
		h.logger.Error("failed to subscribe", "error", err, "email", email)
		respondError(w, http.StatusInternalServerError, "Error suscribiendo email")
		return
	}

	if result == domain.SubscribeAlreadyActive {
		respondResult(w, http.StatusOK, true, "Ya estabas suscrito.")
		return
	}
	respondResult(w, http.StatusOK, true, "Suscripción exitosa.")
}

func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, ok := h.email(w, r)
	if !ok {
		return
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	found, err := h.store.Unsubscribe(ctx, email)
	if err != nil {
		h.logger.Error("failed to unsubscribe", "error", err, "email", email)
		respondError(w, http.StatusInternalServerError, "Error desuscribiendo email")
		return
	}

	if !found {
		respondResult(w, http.StatusOK, true, "No estabas suscrito.")
		return
	}
	respondResult(w, http.StatusOK, true, "Te has desuscrito correctamente.")
}

func (h *NewsletterHandler) email(w http.ResponseWriter, r *http.Request) (string, bool) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return "", false
	}
	email := f.trimmed("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "Email requerido")
		return "", false
	}
	return email, true
}
