package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id::text, nombre, descripcion, departamento, municipio, estado,
	fecha_inicio, fecha_fin, lat, lng, imagen_url, created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Nombre, &p.Descripcion, &p.Departamento, &p.Municipio, &p.Estado,
		&p.FechaInicio, &p.FechaFin, &p.Coordenadas.Lat, &p.Coordenadas.Lng,
		&p.ImagenURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `
		INSERT INTO projects (nombre, descripcion, departamento, municipio, estado,
			fecha_inicio, fecha_fin, lat, lng, imagen_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+projectColumns,
		req.Nombre, req.Descripcion, req.Departamento, req.Municipio, req.Estado,
		req.FechaInicio, req.FechaFin, req.Coordenadas.Lat, req.Coordenadas.Lng, req.ImagenURL,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, or only those of one department when
// departamento is non-empty, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context, departamento string) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	args := []any{}
	if departamento != "" {
		query += ` WHERE departamento = $1`
		args = append(args, departamento)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	return projects, nil
}

// UpdateProject writes only the fields set in req. Returns nil when id does not exist.
func (s *PostgresStore) UpdateProject(ctx context.Context, id string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	set := &setBuilder{}
	set.add("nombre", req.Nombre.Set, req.Nombre.Value)
	set.add("descripcion", req.Descripcion.Set, req.Descripcion.Value)
	set.add("departamento", req.Departamento.Set, req.Departamento.Value)
	set.add("municipio", req.Municipio.Set, req.Municipio.Value)
	set.add("estado", req.Estado.Set, req.Estado.Value)
	set.add("fecha_inicio", req.FechaInicio.Set, req.FechaInicio.Value)
	set.add("fecha_fin", req.FechaFin.Set, req.FechaFin.Value)
	set.add("lat", req.Coordenadas.Set, req.Coordenadas.Value.Lat)
	set.add("lng", req.Coordenadas.Set, req.Coordenadas.Value.Lng)
	set.add("imagen_url", req.ImagenURL.Set, req.ImagenURL.Value)

	if set.empty() {
		return s.GetProject(ctx, id)
	}

	query := fmt.Sprintf(`
		UPDATE projects SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING %s
	`, set.clause(), set.next(), projectColumns)

	p, err := scanProject(s.pool.QueryRow(ctx, query, set.argsWith(id)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return p, nil
}

// DeleteProject hard-deletes a project. Returns false when id does not exist.
func (s *PostgresStore) DeleteProject(ctx context.Context, id string) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting project: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
