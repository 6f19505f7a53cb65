package domain

type ContactForm struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
	Asunto   string `json:"asunto"`
	Mensaje  string `json:"mensaje"`
}

func (f ContactForm) Valid() bool {
	return f.Nombre != "" && f.Email != "" && f.Mensaje != ""
}

// PQRForm is a petition, complaint or claim ("peticiones, quejas y reclamos").
type PQRForm struct {
	NombreCompleto         string
	Email                  string
	Telefono               string
	Tipo                   string
	Asunto                 string
	Mensaje                string
	AceptaTratamientoDatos bool
}

func (f PQRForm) Valid() bool {
	return f.NombreCompleto != "" && f.Email != "" && f.Mensaje != "" && f.Tipo != ""
}

type JobApplicationForm struct {
	NombreCompleto string
	Email          string
	Telefono       string
	Cargo          string
	Profesion      string
	Mensaje        string
}

func (f JobApplicationForm) Valid() bool {
	return f.NombreCompleto != "" && f.Email != "" && f.Cargo != "" && f.Profesion != ""
}
