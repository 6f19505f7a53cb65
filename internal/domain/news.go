package domain

import "time"

type News struct {
	ID        string    `json:"id"`
	Titulo    string    `json:"titulo"`
	Resumen   string    `json:"resumen"`
	Contenido string    `json:"contenido"`
	Fecha     string    `json:"fecha"`
	ImagenURL string    `json:"imagenUrl"`
	Categoria string    `json:"categoria"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateNewsRequest struct {
	Titulo    string
	Resumen   string
	Contenido string
	Fecha     string
	ImagenURL string
	Categoria string
}

// Valid reports whether every required field is non-empty.
func (r CreateNewsRequest) Valid() bool {
	return r.Titulo != "" && r.Resumen != "" && r.Contenido != "" && r.Fecha != ""
}

// UpdateNewsRequest is a partial update. Unset fields keep their stored value.
type UpdateNewsRequest struct {
	Titulo    Optional[string]
	Resumen   Optional[string]
	Contenido Optional[string]
	Fecha     Optional[string]
	ImagenURL Optional[string]
	Categoria Optional[string]
}
