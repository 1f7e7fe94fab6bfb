package sqlite

import (
	"context"
	"fmt"

	"snapblog/internal/storage"
)

func (s *Store) CreatePost(ctx context.Context, authorID int64, title, body, imageURL string) (*storage.Post, error) {
	if err := validateContent(body); err != nil {
		return nil, err
	}

	query := `INSERT INTO posts (author_id, title, body, image_url)
		VALUES (?, ?, ?, NULLIF(?, ''))
		RETURNING id, author_id, title, body, image_url, created_at, updated_at,
			(SELECT username FROM users WHERE id = ?) as author_name`

	var post storage.Post
	if err := s.db.GetContext(ctx, &post, query, authorID, title, body, imageURL, authorID); err != nil {
		return nil, fmt.Errorf("could not create post: %w", mapSqlError(err))
	}

	return &post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*storage.Post, error) {
	query := `SELECT p.id, p.author_id, p.title, p.body, p.image_url, p.created_at, p.updated_at,
			COALESCE(u.username, 'deleted user') as author_name
		FROM posts AS p
		LEFT JOIN users AS u ON p.author_id = u.id
		WHERE p.id = ?
		LIMIT 1`

	var post storage.Post
	if err := s.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, fmt.Errorf("cannot find post with ID %d: %w", id, mapSqlError(err))
	}

	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, offset, limit int64) ([]*storage.Post, error) {
	query := `SELECT p.id, p.author_id, p.title, p.body, p.image_url, p.created_at, p.updated_at,
			COALESCE(u.username, 'deleted user') as author_name
		FROM posts AS p
		LEFT JOIN users AS u ON p.author_id = u.id
		ORDER BY p.created_at DESC
		LIMIT ?
		OFFSET ?`

	var posts []*storage.Post
	if err := s.db.SelectContext(ctx, &posts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapSqlError(err))
	}

	return posts, nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID, offset, limit int64) ([]*storage.Post, error) {
	query := `SELECT p.id, p.author_id, p.title, p.body, p.image_url, p.created_at, p.updated_at,
			COALESCE(u.username, 'deleted user') as author_name
		FROM posts AS p
		LEFT JOIN users AS u ON p.author_id = u.id
		WHERE p.author_id = ?
		ORDER BY p.created_at DESC
		LIMIT ?
		OFFSET ?`

	var posts []*storage.Post
	if err := s.db.SelectContext(ctx, &posts, query, authorID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapSqlError(err))
	}

	return posts, nil
}

// UpdatePost rewrites title, body and image URL in one statement, guarded by
// author_id so a non-owner update reports ErrNotFound rather than leaking
// the post's existence.
func (s *Store) UpdatePost(ctx context.Context, postID, authorID int64, title, body, imageURL string) (*storage.Post, error) {
	if err := validateContent(body); err != nil {
		return nil, err
	}

	query := `UPDATE posts SET title = ?, body = ?, image_url = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND author_id = ?
		RETURNING id, author_id, title, body, image_url, created_at, updated_at,
			(SELECT username FROM users WHERE id = ?) as author_name`

	var post storage.Post
	if err := s.db.GetContext(ctx, &post, query, title, body, imageURL, postID, authorID, authorID); err != nil {
		return nil, fmt.Errorf("could not update post: %w", mapSqlError(err))
	}

	return &post, nil
}

// DeletePost removes the row outright. The remote object cleanup that follows
// is best-effort, so an orphaned object is possible but a row pointing at a
// deleted object is not.
func (s *Store) DeletePost(ctx context.Context, postID, authorID int64) error {
	query := `DELETE FROM posts
		WHERE id = ? AND author_id = ?`

	result, err := s.db.ExecContext(ctx, query, postID, authorID)
	if err != nil {
		return fmt.Errorf("could not delete post: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
