package mail

import (
	"strings"
	"testing"

	"github.com/conambiente/conambiente-backend/internal/domain"
)

func TestContact_DefaultsAndEscaping(t *testing.T) {
	c := NewComposer("Conambiente")

	msg, err := c.Contact("contacto@conambiente.com", domain.ContactForm{
		Nombre:  "Ana <script>",
		Email:   "ana@example.com",
		Mensaje: "línea 1\nlínea 2",
	})
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}

	if msg.Subject != "Contacto web: Sin asunto" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.FromName != "Web Conambiente" {
		t.Errorf("FromName = %q", msg.FromName)
	}
	if len(msg.To) != 1 || msg.To[0] != "contacto@conambiente.com" {
		t.Errorf("To = %v", msg.To)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("HTML body must escape user input")
	}
	if !strings.Contains(msg.HTML, "línea 1<br>línea 2") {
		t.Errorf("newlines should become <br>: %s", msg.HTML)
	}
	if !strings.Contains(msg.Text, "Teléfono: No proporcionado") {
		t.Errorf("missing phone default in text: %s", msg.Text)
	}
}

func TestPQR_IncludesConsent(t *testing.T) {
	c := NewComposer("Conambiente")

	msg, err := c.PQR("pqr@conambiente.com", domain.PQRForm{
		NombreCompleto:         "Luis Pérez",
		Email:                  "luis@example.com",
		Tipo:                   "Queja",
		Asunto:                 "Ruido",
		Mensaje:                "Hay ruido",
		AceptaTratamientoDatos: true,
	})
	if err != nil {
		t.Fatalf("PQR: %v", err)
	}

	if msg.Subject != "Nueva Queja recibida desde PQR: Ruido" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "<strong>ACEPTÓ</strong>") {
		t.Errorf("consent outcome missing: %s", msg.HTML)
	}
}

func TestJobApplication_AttachesCV(t *testing.T) {
	c := NewComposer("Conambiente")
	cv := Attachment{Filename: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}

	msg, err := c.JobApplication("rrhh@conambiente.com", domain.JobApplicationForm{
		NombreCompleto: "Marta Gómez",
		Email:          "marta@example.com",
		Cargo:          "Ingeniera ambiental",
		Profesion:      "Ingeniera",
	}, cv)
	if err != nil {
		t.Fatalf("JobApplication: %v", err)
	}

	if msg.Subject != "Nuevo candidato: Marta Gómez - Cargo: Ingeniera ambiental" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "cv.pdf" {
		t.Errorf("Attachments = %+v", msg.Attachments)
	}
	if !strings.Contains(msg.Text, noMessage) {
		t.Errorf("missing message default: %s", msg.Text)
	}
}

func TestNewsletter(t *testing.T) {
	c := NewComposer("Conambiente")

	msg, err := c.Newsletter("lector@example.com", NewsletterItem{
		Titulo:   "Nueva planta",
		Resumen:  "Inauguramos",
		Fecha:    "2024-05-01",
		ImageURL: "https://api.example.com/uploads/1-1.png",
	})
	if err != nil {
		t.Fatalf("Newsletter: %v", err)
	}
	if msg.Subject != "Nueva noticia: Nueva planta" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, `src="https://api.example.com/uploads/1-1.png"`) {
		t.Errorf("image missing: %s", msg.HTML)
	}

	msg, _ = c.Newsletter("lector@example.com", NewsletterItem{Titulo: "Sin imagen"})
	if strings.Contains(msg.HTML, "<img") {
		t.Error("no <img> expected without image URL")
	}
}
