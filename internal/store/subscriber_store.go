package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/conambiente/conambiente-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

const subscriberColumns = `id::text, email, activo, created_at, updated_at`

func scanSubscriber(row pgx.Row) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	if err := row.Scan(&sub.ID, &sub.Email, &sub.Activo, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Subscribe creates the subscriber or reactivates the existing row for email.
// The unique index on email keeps one record per address even under
// concurrent requests.
func (s *PostgresStore) Subscribe(ctx context.Context, email string) (*domain.Subscriber, domain.SubscribeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := scanSubscriber(tx.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1 FOR UPDATE`, email))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("querying subscriber: %w", err)
	}

	var (
		sub    *domain.Subscriber
		result domain.SubscribeResult
	)
	switch {
	case existing == nil:
		sub, err = scanSubscriber(tx.QueryRow(ctx, `
			INSERT INTO subscribers (email, activo) VALUES ($1, TRUE)
			ON CONFLICT (email) DO UPDATE SET activo = TRUE, updated_at = NOW()
			RETURNING `+subscriberColumns, email))
		if err != nil {
			return nil, 0, fmt.Errorf("inserting subscriber: %w", err)
		}
		result = domain.SubscribeCreated
	case !existing.Activo:
		sub, err = scanSubscriber(tx.QueryRow(ctx, `
			UPDATE subscribers SET activo = TRUE, updated_at = NOW()
			WHERE id = $1
			RETURNING `+subscriberColumns, existing.ID))
		if err != nil {
			return nil, 0, fmt.Errorf("reactivating subscriber: %w", err)
		}
		result = domain.SubscribeReactivated
	default:
		sub = existing
		result = domain.SubscribeAlreadyActive
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("committing transaction: %w", err)
	}
	return sub, result, nil
}

// Unsubscribe deactivates the subscriber for email. Returns false when no
// record exists.
func (s *PostgresStore) Unsubscribe(ctx context.Context, email string) (bool, error) {
	result, err := s.pool.Exec(ctx, `
		UPDATE subscribers SET activo = FALSE, updated_at = NOW()
		WHERE email = $1
	`, email)
	if err != nil {
		return false, fmt.Errorf("deactivating subscriber: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListActiveSubscribers returns every subscriber with activo = true.
func (s *PostgresStore) ListActiveSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE activo = TRUE
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []domain.Subscriber{}
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subscribers = append(subscribers, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscribers: %w", err)
	}

	return subscribers, nil
}
