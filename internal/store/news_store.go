package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

const newsColumns = `id::text, titulo, resumen, contenido, fecha, imagen_url, categoria, created_at, updated_at`

func scanNews(row pgx.Row) (*domain.News, error) {
	var n domain.News
	err := row.Scan(
		&n.ID, &n.Titulo, &n.Resumen, &n.Contenido, &n.Fecha,
		&n.ImagenURL, &n.Categoria, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *PostgresStore) CreateNews(ctx context.Context, req domain.CreateNewsRequest) (*domain.News, error) {
	n, err := scanNews(s.pool.QueryRow(ctx, `
		INSERT INTO news (titulo, resumen, contenido, fecha, imagen_url, categoria)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+newsColumns,
		req.Titulo, req.Resumen, req.Contenido, req.Fecha, req.ImagenURL, req.Categoria,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting news: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetNews(ctx context.Context, id string) (*domain.News, error) {
	n, err := scanNews(s.pool.QueryRow(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying news: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListNews(ctx context.Context) ([]domain.News, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+newsColumns+` FROM news ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying news: %w", err)
	}
	defer rows.Close()

	items := []domain.News{}
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning news: %w", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating news: %w", err)
	}

	return items, nil
}

// UpdateNews writes only the fields set in req. Returns nil when id does not exist.
func (s *PostgresStore) UpdateNews(ctx context.Context, id string, req domain.UpdateNewsRequest) (*domain.News, error) {
	set := &setBuilder{}
	set.add("titulo", req.Titulo.Set, req.Titulo.Value)
	set.add("resumen", req.Resumen.Set, req.Resumen.Value)
	set.add("contenido", req.Contenido.Set, req.Contenido.Value)
	set.add("fecha", req.Fecha.Set, req.Fecha.Value)
	set.add("imagen_url", req.ImagenURL.Set, req.ImagenURL.Value)
	set.add("categoria", req.Categoria.Set, req.Categoria.Value)

	if set.empty() {
		return s.GetNews(ctx, id)
	}

	query := fmt.Sprintf(`
		UPDATE news SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING %s
	`, set.clause(), set.next(), newsColumns)

	n, err := scanNews(s.pool.QueryRow(ctx, query, set.argsWith(id)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating news: %w", err)
	}
	return n, nil
}

// DeleteNews hard-deletes a news item. Returns false when id does not exist.
func (s *PostgresStore) DeleteNews(ctx context.Context, id string) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting news: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// setBuilder accumulates "column = $n" clauses for dynamic partial updates.
type setBuilder struct {
	clauses []string
	args    []any
}

func (b *setBuilder) add(column string, set bool, value any) {
	if !set {
		return
	}
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *setBuilder) empty() bool { return len(b.clauses) == 0 }

func (b *setBuilder) clause() string { return strings.Join(b.clauses, ", ") }

// next is the placeholder index following the SET arguments.
func (b *setBuilder) next() int { return len(b.args) + 1 }

func (b *setBuilder) argsWith(extra ...any) []any {
	return append(append([]any{}, b.args...), extra...)
}
