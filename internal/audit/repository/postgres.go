package repository

import (
	"context"
	"database/sql"

	"auction-marketplace/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a security event repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one security event. The event must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.SecurityEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_events (id, event_type, user_id, email, reason, ip, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.EventType, nullable(e.UserID), nullable(e.Email), nullable(e.Reason),
		e.IP, e.UserAgent, nullable(e.Metadata), e.CreatedAt,
	)
	return err
}

// ListByUser returns events for one user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, user_id, email, reason, ip, user_agent, metadata, created_at
		FROM security_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the newest events across all users.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit, offset int32) ([]*domain.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, user_id, email, reason, ip, user_agent, metadata, created_at
		FROM security_events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*domain.SecurityEvent, error) {
	var out []*domain.SecurityEvent
	for rows.Next() {
		var e domain.SecurityEvent
		var userID, email, reason, metadata sql.NullString
		if err := rows.Scan(&e.ID, &e.EventType, &userID, &email, &reason, &e.IP, &e.UserAgent, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = userID.String
		e.Email = email.String
		e.Reason = reason.String
		e.Metadata = metadata.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
