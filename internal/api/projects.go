package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/conambiente/conambiente-backend/internal/upload"
	"github.com/go-chi/chi/v5"
)

const msgProjectNotFound = "Proyecto no encontrado"

type ProjectHandler struct {
	store    ProjectStore
	uploader *upload.Uploader
	timeout  time.Duration
	logger   *slog.Logger
}

func NewProjectHandler(s ProjectStore, u *upload.Uploader, timeout time.Duration, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{store: s, uploader: u, timeout: timeout, logger: logger}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "", "Error obteniendo proyectos")
}

// ByDepartment lists projects whose departamento matches the path segment
// exactly, after URL-decoding.
func (h *ProjectHandler) ByDepartment(w http.ResponseWriter, r *http.Request) {
	departamento := chi.URLParam(r, "departamento")
	if decoded, err := url.PathUnescape(departamento); err == nil {
		departamento = decoded
	}
	if departamento == "" {
		respondJSON(w, http.StatusOK, []domain.Project{})
		return
	}
	h.list(w, r, departamento, "Error filtrando proyectos")
}

func (h *ProjectHandler) list(w http.ResponseWriter, r *http.Request, departamento, failMsg string) {
	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	projects, err := h.store.ListProjects(ctx, departamento)
	if err != nil {
		h.logger.Error("failed to list projects", "error", err, "departamento", departamento)
		respondError(w, http.StatusInternalServerError, failMsg)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}

	respondJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		respondError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	project, err := h.store.GetProject(ctx, id)
	if err != nil {
		h.logger.Error("failed to get project", "error", err, "project_id", id)
		respondError(w, http.StatusInternalServerError, "Error obteniendo proyecto")
		return
	}
	if project == nil {
		respondError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}

	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	coords, err := f.coordinates("coordenadas")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Coordenadas inválidas")
		return
	}

	req := domain.CreateProjectRequest{
		Nombre:       f.str("nombre"),
		Descripcion:  f.str("descripcion"),
		Departamento: f.str("departamento"),
		Municipio:    f.str("municipio"),
		Estado:       f.str("estado"),
		FechaInicio:  nonEmpty(f.str("fechaInicio")),
		FechaFin:     nonEmpty(f.str("fechaFin")),
		Coordenadas:  coords.Value,
		ImagenURL:    f.str("imagenUrl"),
	}
	if !req.Valid() {
		respondError(w, http.StatusBadRequest, "Faltan campos obligatorios")
		return
	}
	if req.Estado == "" {
		req.Estado = domain.DefaultProjectStatus
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

	project, err := h.store.CreateProject(ctx, req)
	if err != nil {
		h.logger.Error("failed to create project", "error", err)
		respondError(w, http.StatusInternalServerError, "Error creando proyecto")
		return
	}

	h.logger.Info("project created", "project_id", project.ID, "by", actor(r))
	respondJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		respondError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}

	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	coords, err := f.coordinates("coordenadas")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Coordenadas inválidas")
		return
	}

	req := domain.UpdateProjectRequest{
		Nombre:       f.optString("nombre"),
		Descripcion:  f.optString("descripcion"),
		Departamento: f.optString("departamento"),
		Municipio:    f.optString("municipio"),
		Estado:       f.optString("estado"),
		FechaInicio:  f.optNullable("fechaInicio"),
		FechaFin:     f.optNullable("fechaFin"),
		Coordenadas:  coords,
		ImagenURL:    f.optString("imagenUrl"),
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

	project, err := h.store.UpdateProject(ctx, id, req)
	if err != nil {
		h.logger.Error("failed to update project", "error", err, "project_id", id)
		respondError(w, http.StatusInternalServerError, "Error actualizando proyecto")
		return
	}
	if project == nil {
		respondError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}

	h.logger.Info("project updated", "project_id", id, "by", actor(r))
	respondJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		respondError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}

	ctx, cancel := dbContext(r, h.timeout)
	defer cancel()

	deleted, err := h.store.DeleteProject(ctx, id)
	if err != nil {
		h.logger.Error("failed to delete project", "error", err, "project_id", id)
		respondError(w, http.StatusInternalServerError, "Error eliminando proyecto")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, msgProjectNotFound)
		return
	}

	h.logger.Info("project deleted", "project_id", id, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
