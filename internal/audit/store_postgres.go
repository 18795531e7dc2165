// Copyright (c) 2026 Kanakku. All rights reserved.

package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// DefaultTrailLimit is how many entries a trail read returns by default.
	DefaultTrailLimit = 200

	// MaxTrailLimit caps a single trail read.
	MaxTrailLimit = 500
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds the PostgreSQL-backed audit store.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (repository *postgresStore) Insert(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_logs (id, action, actor, target, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repository.pool.Exec(ctx, query,
		entry.ID,
		string(entry.Action),
		entry.Actor,
		entry.Target,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit_insert_failed: %w", err)
	}

	return nil
}

// Latest returns the newest entries first. A limit outside [1, MaxTrailLimit]
// falls back to DefaultTrailLimit.
func (repository *postgresStore) Latest(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 || limit > MaxTrailLimit {
		limit = DefaultTrailLimit
	}

	query := `
		SELECT id, action, actor, target, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := repository.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit_query_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var action string

		if err := rows.Scan(&entry.ID, &action, &entry.Actor, &entry.Target, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit_scan_failed: %w", err)
		}

		entry.Action = Action(action)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit_rows_failed: %w", err)
	}

	return entries, nil
}
