package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/conambiente/conambiente-backend/internal/upload"
	"github.com/go-chi/chi/v5"
)

const msgNewsNotFound = "Noticia no encontrada"

type NewsHandler struct {
	store     NewsStore
	uploader  *upload.Uploader
	announcer Announcer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewNewsHandler(s NewsStore, u *upload.Uploader, a Announcer, timeout time.Duration, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{store: s, uploader: u, announcer: a, timeout: timeout, logger: logger}
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	news, err := h.store.ListNews(ctx)
	if err != nil {
		h.logger.Error("failed to list news", "error", err)
		respondError(w, http.StatusInternalServerError, "Error obteniendo noticias")
		return
	}
	if news == nil {
		news = []domain.News{}
	}

	respondJSON(w, http.StatusOK, news)
}

func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		respondError(w, http.StatusNotFound, msgNewsNotFound)
		return
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	news, err := h.store.GetNews(ctx, id)
	if err != nil {
		h.logger.Error("failed to get news", "error", err, "news_id", id)
		respondError(w, http.StatusInternalServerError, "Error obteniendo noticia")
		return
	}
	if news == nil {
		respondError(w, http.StatusNotFound, msgNewsNotFound)
		return
	}

	respondJSON(w, http.StatusOK, news)
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	req := domain.CreateNewsRequest{
		Titulo:    f.str("titulo"),
		Resumen:   f.str("resumen"),
		Contenido: f.str("contenido"),
		Fecha:     f.str("fecha"),
		Categoria: f.str("categoria"),
		ImagenURL: f.str("imagenUrl"),
	}
	if !req.Valid() {
		respondError(w, http.StatusBadRequest, "Faltan campos obligatorios")
		return
	}

	if fh := f.file(upload.FieldImage); fh != nil {
		file, err := h.uploader.Accept(r.Context(), upload.FieldImage, fh)
		if err != nil {
			respondUploadError(w, h.logger, err)
			return
		}
		req.ImagenURL = file.URL()
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	news, err := h.store.CreateNews(ctx, req)
	if err != nil {
		h.logger.Error("failed to create news", "error", err)
		respondError(w, http.StatusInternalServerError, "Error creando noticia")
		return
	}

	h.logger.Info("news created", "news_id", news.ID, "by", actor(r))
	h.announcer.Announce(*news)

	respondJSON(w, http.StatusCreated, news)
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		respondError(w, http.StatusNotFound, msgNewsNotFound)
		return
	}

	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	req := domain.UpdateNewsRequest{
		Titulo:    f.optString("titulo"),
		Resumen:   f.optString("resumen"),
		Contenido: f.optString("contenido"),
		Fecha:     f.optString("fecha"),
		Categoria: f.optString("categoria"),
		ImagenURL: f.optString("imagenUrl"),
	}

	if fh := f.file(upload.FieldImage); fh != nil {
		file, err := h.uploader.Accept(r.Context(), upload.FieldImage, fh)
		if err != nil {
			respondUploadError(w, h.logger, err)
			return
		}
		req.ImagenURL = domain.Some(file.URL())
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	news, err := h.store.UpdateNews(ctx, id, req)
	if err != nil {
		h.logger.Error("failed to update news", "error", err, "news_id", id)
		respondError(w, http.StatusInternalServerError, "Error actualizando noticia")
		return
	}
	if news == nil {
		respondError(w, http.StatusNotFound, msgNewsNotFound)
		return
	}

	h.logger.Info("news updated", "news_id", id, "by", actor(r))
	respondJSON(w, http.StatusOK, news)
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		respondError(w, http.StatusNotFound, msgNewsNotFound)
		return
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	deleted, err := h.store.DeleteNews(ctx, id)
	if err != nil {
		h.logger.Error("failed to delete news", "error", err, "news_id", id)
		respondError(w, http.StatusInternalServerError, "Error eliminando noticia")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, msgNewsNotFound)
		return
	}

	h.logger.Info("news deleted", "news_id", id, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}
