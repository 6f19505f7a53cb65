package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/conambiente/conambiente-backend/internal/mail"
	"github.com/conambiente/conambiente-backend/internal/upload"
)

// Recipients are the inboxes each public form is relayed to.
type Recipients struct {
	Contact string
	PQR     string
	Work    string
}

// FormHandler relays the public forms by email. Nothing is persisted except
// the uploaded CV file.
type FormHandler struct {
	sender     mail.Sender
	composer   *mail.Composer
	uploader   *upload.Uploader
	recipients Recipients
	logger     *slog.Logger
}

func NewFormHandler(sender mail.Sender, composer *mail.Composer, u *upload.Uploader, to Recipients, logger *slog.Logger) *FormHandler {
	return &FormHandler{sender: sender, composer: composer, uploader: u, recipients: to, logger: logger}
}

func (h *FormHandler) Contact(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	form := domain.ContactForm{
		Nombre:   f.trimmed("nombre"),
		Email:    f.trimmed("email"),
		Telefono: f.trimmed("telefono"),
		Asunto:   f.trimmed("asunto"),
		Mensaje:  f.str("mensaje"),
	}
	if !form.Valid() {
		respondError(w, http.StatusBadRequest, "Faltan campos obligatorios (nombre, email, mensaje)")
		return
	}

	msg, err := h.composer.Contact(h.recipients.Contact, form)
	if err == nil {
		err = h.sender.Send(r.Context(), msg)
	}
	if err != nil {
		h.logger.Error("failed to send contact mail", "error", err, "email", form.Email)
		respondResult(w, http.StatusInternalServerError, false, "Error al enviar el mensaje.")
		return
	}

	respondResult(w, http.StatusOK, true, "Mensaje enviado correctamente.")
}

func (h *FormHandler) PQR(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	form := domain.PQRForm{
		NombreCompleto:         f.trimmed("nombreCompleto"),
		Email:                  f.trimmed("email"),
		Telefono:               f.trimmed("telefono"),
		Tipo:                   f.trimmed("tipo"),
		Asunto:                 f.trimmed("asunto"),
		Mensaje:                f.str("mensaje"),
		AceptaTratamientoDatos: f.truthy("aceptaTratamientoDatos"),
	}
	if !form.Valid() {
		respondError(w, http.StatusBadRequest, "Faltan campos obligatorios (nombreCompleto, email, tipo, mensaje)")
		return
	}
	if !form.AceptaTratamientoDatos {
		respondError(w, http.StatusBadRequest, "Debes aceptar el tratamiento de datos.")
		return
	}

	msg, err := h.composer.PQR(h.recipients.PQR, form)
	if err == nil {
		err = h.sender.Send(r.Context(), msg)
	}
	if err != nil {
		h.logger.Error("failed to send pqr mail", "error", err, "email", form.Email, "tipo", form.Tipo)
		respondResult(w, http.StatusInternalServerError, false, "Error al enviar la PQR.")
		return
	}

	respondResult(w, http.StatusOK, true, "PQR enviada correctamente.")
}

func (h *FormHandler) JobApplication(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r)
	if err != nil {
		respondBodyError(w, err)
		return
	}

	form := domain.JobApplicationForm{
		NombreCompleto: f.trimmed("nombreCompleto"),
		Email:          f.trimmed("email"),
		Telefono:       f.trimmed("telefono"),
		Cargo:          f.trimmed("cargo"),
		Profesion:      f.trimmed("profesion"),
		Mensaje:        f.str("mensaje"),
	}
	if !form.Valid() {
		respondError(w, http.StatusBadRequest, "Faltan campos obligatorios (nombreCompleto, email, cargo, profesion)")
		return
	}

	fh := f.file(upload.FieldCV)
	if fh == nil {
		respondError(w, http.StatusBadRequest, "Debes adjuntar tu hoja de vida (CV).")
		return
	}
	if f.fileCount(upload.FieldCV) > 1 {
		respondError(w, http.StatusBadRequest, "Adjunta un solo archivo como hoja de vida (CV).")
		return
	}

	file, err := h.uploader.Accept(r.Context(), upload.FieldCV, fh)
	if err != nil {
		respondUploadError(w, h.logger, err)
		return
	}

	cv, err := h.readAttachment(r, file)
	if err != nil {
		h.logger.Error("failed to read stored cv", "error", err, "file", file.Name)
		respondResult(w, http.StatusInternalServerError, false, "Error al enviar la postulación.")
		return
	}

	msg, err := h.composer.JobApplication(h.recipients.Work, form, cv)
	if err == nil {
		err = h.sender.Send(r.Context(), msg)
	}
	if err != nil {
		h.logger.Error("failed to send job application mail", "error", err, "email", form.Email, "cargo", form.Cargo)
		respondResult(w, http.StatusInternalServerError, false, "Error al enviar la postulación.")
		return
	}

	respondResult(w, http.StatusOK, true, "Postulación enviada correctamente.")
}

// readAttachment loads a stored upload back so it can be attached under the
// applicant's original file name.
func (h *FormHandler) readAttachment(r *http.Request, file *upload.File) (mail.Attachment, error) {
	rc, err := h.uploader.Store().Open(r.Context(), file.Name)
	if err != nil {
		return mail.Attachment{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, upload.MaxFileSize+1))
	if err != nil {
		return mail.Attachment{}, fmt.Errorf("reading %s: %w", file.Name, err)
	}

	return mail.Attachment{
		Filename:    file.OriginalName,
		ContentType: file.ContentType,
		Data:        data,
	}, nil
}
