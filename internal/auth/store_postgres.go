// Copyright (c) 2026 Kanakku. All rights reserved.

package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anandvel/kanakku/internal/platform/dberr"
	"github.com/anandvel/kanakku/internal/platform/sec"
	"github.com/anandvel/kanakku/pkg/pagination"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository builds the PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (repository *userRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "user")
	}

	return nil
}

func (repository *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1`

	var user User
	var role string

	err := repository.pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "user")
	}

	user.Role = sec.UserRole(role)
	return &user, nil
}

func (repository *userRepository) UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error) {
	query := `UPDATE users SET password_hash = $1 WHERE username = $2`

	tag, err := repository.pool.Exec(ctx, query, passwordHash, username)
	if err != nil {
		return false, dberr.Wrap(err, "user")
	}

	return tag.RowsAffected() > 0, nil
}

func (repository *userRepository) Delete(ctx context.Context, username string) (bool, error) {
	query := `DELETE FROM users WHERE username = $1`

	tag, err := repository.pool.Exec(ctx, query, username)
	if err != nil {
		return false, dberr.Wrap(err, "user")
	}

	return tag.RowsAffected() > 0, nil
}

func (repository *userRepository) List(ctx context.Context, params pagination.Params) ([]User, int, error) {

	var total int
	if err := repository.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("user_count_failed: %w", err)
	}

	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		ORDER BY username ASC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(ctx, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("user_query_failed: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, params.Limit)
	for rows.Next() {
		var user User
		var role string

		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("user_scan_failed: %w", err)
		}

		user.Role = sec.UserRole(role)
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("user_rows_failed: %w", err)
	}

	return users, total, nil
}

func (repository *userRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int

	err := repository.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1`, string(sec.RoleAdmin),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("user_count_admins_failed: %w", err)
	}

	return count, nil
}
