package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/conambiente/conambiente-backend/internal/auth"
	"github.com/conambiente/conambiente-backend/internal/upload"
	"github.com/google/uuid"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// ResultResponse is the body of the newsletter and form endpoints.
type ResultResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func respondResult(w http.ResponseWriter, status int, ok bool, message string) {
	respondJSON(w, status, ResultResponse{OK: ok, Message: message})
}

// respondBodyError maps a parseFields failure.
func respondBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, upload.ErrPayloadTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "La petición supera el tamaño máximo permitido")
		return
	}
	respondError(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
}

// respondUploadError maps an upload.Accept failure.
func respondUploadError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, upload.ErrUnsupportedMediaType):
		respondError(w, http.StatusUnsupportedMediaType, "Tipo de archivo no permitido")
	case errors.Is(err, upload.ErrPayloadTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "El archivo supera el tamaño máximo permitido (10 MB)")
	default:
		logger.Error("failed to store upload", "error", err)
		respondError(w, http.StatusInternalServerError, "Error guardando el archivo")
	}
}

// validID reports whether id can name a stored entity. Anything else is a 404.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// actor is the email of the authenticated admin behind r, or "" on public routes.
func actor(r *http.Request) string {
	if claims, ok := auth.PrincipalFromContext(r.Context()); ok {
		return claims.Email
	}
	return ""
}

// dbContext bounds one persistence call.
func dbContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), timeout)
}
