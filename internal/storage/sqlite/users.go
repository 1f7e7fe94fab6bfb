package sqlite

import (
	"context"
	"fmt"

	"snapblog/internal/storage"
)

// Users are soft-deleted: deleted_at is set instead of removing the
// row, so a deleted account's posts keep a valid author and the
// username stays reserved. Every lookup filters on deleted_at IS NULL.

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*storage.User, error) {
	const query = `INSERT INTO users (username, password_hash)
		VALUES (?, ?)
		RETURNING *`

	var user storage.User
	if err := s.db.GetContext(ctx, &user, query, username, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user %q: %w", username, mapSqlError(err))
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	const query = `SELECT * FROM users
		WHERE id = ? AND deleted_at IS NULL
		LIMIT 1`

	var user storage.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("lookup user id %d: %w", id, mapSqlError(err))
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	const query = `SELECT * FROM users
		WHERE username = ? AND deleted_at IS NULL
		LIMIT 1`

	var user storage.User
	if err := s.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, fmt.Errorf("lookup username %q: %w", username, mapSqlError(err))
	}
	return &user, nil
}

func (s *Store) ChangeUserPassword(ctx context.Context, userID int64, newHash string) error {
	const query = `UPDATE users SET password_hash = ?
		WHERE id = ? AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, newHash, userID)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", userID, mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	const query = `UPDATE users SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", userID, mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}
