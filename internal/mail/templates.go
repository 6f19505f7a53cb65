package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/conambiente/conambiente-backend/internal/domain"
)

const (
	noPhone   = "No proporcionado"
	noSubject = "Sin asunto"
	noMessage = "Sin mensaje adicional"
)

// Composer builds the outbound messages for each form and for the newsletter.
type Composer struct {
	fromName string
}

func NewComposer(fromName string) *Composer {
	return &Composer{fromName: fromName}
}

var funcs = template.FuncMap{
	"nl2br": func(s string) template.HTML {
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
	},
}

var contactHTML = template.Must(template.New("contact").Funcs(funcs).Parse(`
<h3>Nuevo mensaje desde el formulario de contacto</h3>
<p><strong>Nombre:</strong> {{.Nombre}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Teléfono:</strong> {{.Telefono}}</p>
<p><strong>Asunto:</strong> {{.Asunto}}</p>
<p><strong>Mensaje:</strong></p>
<p>{{nl2br .Mensaje}}</p>
`))

var pqrHTML = template.Must(template.New("pqr").Funcs(funcs).Parse(`
<h3>Nueva {{.Tipo}} desde el formulario PQR</h3>
<p><strong>Tipo:</strong> {{.Tipo}}</p>
<p><strong>Nombre:</strong> {{.NombreCompleto}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Teléfono:</strong> {{.Telefono}}</p>
<p><strong>Asunto:</strong> {{.Asunto}}</p>
<p><strong>Mensaje:</strong></p>
<p>{{nl2br .Mensaje}}</p>
<hr>
<p>El usuario <strong>{{if .AceptaTratamientoDatos}}ACEPTÓ{{else}}NO ACEPTÓ{{end}}</strong> el tratamiento de datos.</p>
`))

var jobHTML = template.Must(template.New("job").Funcs(funcs).Parse(`
<h3>Nuevo registro en "Trabaja con nosotros"</h3>
<p><strong>Nombre completo:</strong> {{.NombreCompleto}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Teléfono:</strong> {{.Telefono}}</p>
<p><strong>Cargo al que postula:</strong> {{.Cargo}}</p>
<p><strong>Profesión:</strong> {{.Profesion}}</p>
<p><strong>Mensaje adicional:</strong></p>
<p>{{nl2br .Mensaje}}</p>
<hr>
<p>Se adjunta la hoja de vida en este correo.</p>
`))

var newsletterHTML = template.Must(template.New("newsletter").Parse(`
<h2>{{.Titulo}}</h2>
<p>{{.Resumen}}</p>
<p><strong>Fecha:</strong> {{.Fecha}}</p>
{{if .ImageURL}}<img src="{{.ImageURL}}" style="max-width:600px;width:100%;"/>{{end}}
<p>Puedes ver más detalles en el sitio web.</p>
<hr>
<p style="font-size:12px;color:#666;">
  Si no deseas recibir más correos, puedes solicitar la desuscripción.
</p>
`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func (c *Composer) Contact(to string, f domain.ContactForm) (Message, error) {
	f.Telefono = orDefault(f.Telefono, noPhone)
	f.Asunto = orDefault(f.Asunto, noSubject)

	html, err := render(contactHTML, f)
	if err != nil {
		return Message{}, err
	}

	return Message{
		FromName: "Web " + c.fromName,
		To:       []string{to},
		ReplyTo:  f.Email,
		Subject:  "Contacto web: " + f.Asunto,
		Text: fmt.Sprintf("Nuevo mensaje desde el formulario de contacto:\n\n"+
			"Nombre: %s\nEmail: %s\nTeléfono: %s\n\nMensaje:\n%s\n",
			f.Nombre, f.Email, f.Telefono, f.Mensaje),
		HTML: html,
	}, nil
}

func (c *Composer) PQR(to string, f domain.PQRForm) (Message, error) {
	f.Telefono = orDefault(f.Telefono, noPhone)
	f.Asunto = orDefault(f.Asunto, noSubject)

	html, err := render(pqrHTML, f)
	if err != nil {
		return Message{}, err
	}

	return Message{
		FromName: "PQR Web " + c.fromName,
		To:       []string{to},
		ReplyTo:  f.Email,
		Subject:  fmt.Sprintf("Nueva %s recibida desde PQR: %s", f.Tipo, f.Asunto),
		Text: fmt.Sprintf("Nueva PQR desde el sitio web:\n\n"+
			"Tipo: %s\nNombre: %s\nEmail: %s\nTeléfono: %s\n\nAsunto: %s\n\nMensaje:\n%s\n",
			f.Tipo, f.NombreCompleto, f.Email, f.Telefono, f.Asunto, f.Mensaje),
		HTML: html,
	}, nil
}

func (c *Composer) JobApplication(to string, f domain.JobApplicationForm, cv Attachment) (Message, error) {
	f.Telefono = orDefault(f.Telefono, noPhone)
	f.Mensaje = orDefault(f.Mensaje, noMessage)

	html, err := render(jobHTML, f)
	if err != nil {
		return Message{}, err
	}

	return Message{
		FromName: "Trabaja con nosotros - " + c.fromName,
		To:       []string{to},
		ReplyTo:  f.Email,
		Subject:  fmt.Sprintf("Nuevo candidato: %s - Cargo: %s", f.NombreCompleto, f.Cargo),
		Text: fmt.Sprintf("Nuevo registro en \"Trabaja con nosotros\":\n\n"+
			"Nombre completo: %s\nEmail: %s\nTeléfono: %s\nCargo al que postula: %s\nProfesión: %s\n\n"+
			"Mensaje adicional:\n%s\n\nSe adjunta la hoja de vida en este correo.\n",
			f.NombreCompleto, f.Email, f.Telefono, f.Cargo, f.Profesion, f.Mensaje),
		HTML:        html,
		Attachments: []Attachment{cv},
	}, nil
}

// NewsletterItem is the part of a news item that goes into the newsletter.
// ImageURL must already be absolute.
type NewsletterItem struct {
	Titulo   string
	Resumen  string
	Fecha    string
	ImageURL string
}

func (c *Composer) Newsletter(to string, item NewsletterItem) (Message, error) {
	html, err := render(newsletterHTML, item)
	if err != nil {
		return Message{}, err
	}
	return Message{
		FromName: c.fromName,
		To:       []string{to},
		Subject:  "Nueva noticia: " + item.Titulo,
		HTML:     html,
	}, nil
}
