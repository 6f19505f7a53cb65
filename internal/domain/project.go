package domain

import "time"

// DefaultProjectStatus is assigned when a project is created without estado.
const DefaultProjectStatus = "En ejecución"

type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type Project struct {
	ID           string      `json:"id"`
	Nombre       string      `json:"nombre"`
	Descripcion  string      `json:"descripcion"`
	Departamento string      `json:"departamento"`
	Municipio    string      `json:"municipio"`
	Estado       string      `json:"estado"`
	FechaInicio  *string     `json:"fechaInicio"`
	FechaFin     *string     `json:"fechaFin"`
	Coordenadas  Coordinates `json:"coordenadas"`
	ImagenURL    string      `json:"imagenUrl"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

type CreateProjectRequest struct {
	Nombre       string
	Descripcion  string
	Departamento string
	Municipio    string
	Estado       string
	FechaInicio  *string
	FechaFin     *string
	Coordenadas  Coordinates
	ImagenURL    string
}

func (r CreateProjectRequest) Valid() bool {
	return r.Nombre != "" && r.Descripcion != "" && r.Departamento != ""
}

// UpdateProjectRequest is a partial update. Unset fields keep their stored value;
// a set nullable field with a nil value clears it.
type UpdateProjectRequest struct {
	Nombre       Optional[string]
	Descripcion  Optional[string]
	Departamento Optional[string]
	Municipio    Optional[string]
	Estado       Optional[string]
	FechaInicio  Optional[*string]
	FechaFin     Optional[*string]
	Coordenadas  Optional[Coordinates]
	ImagenURL    Optional[string]
}
