package storage

import (
	"context"
	"errors"
	"time"
)

type Store interface {
	// users
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ChangeUserPassword(ctx context.Context, userID int64, newHash string) error
	DeleteUser(ctx context.Context, userID int64) error

	// posts
	CreatePost(ctx context.Context, authorID int64, title, body, imageURL string) (*Post, error)
	GetPostByID(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, offset, limit int64) ([]*Post, error)
	ListPostsByAuthor(ctx context.Context, authorID, offset, limit int64) ([]*Post, error)
	UpdatePost(ctx context.Context, postID, authorID int64, title, body, imageURL string) (*Post, error)
	DeletePost(ctx context.Context, postID, authorID int64) error

	// comments
	CreateComment(ctx context.Context, postID, userID int64, content string) (*Comment, error)
	GetCommentByID(ctx context.Context, commentID int64) (*Comment, error)
	UpdateComment(ctx context.Context, commentID, userID int64, content string) (*Comment, error)
	DeleteComment(ctx context.Context, commentID, userID int64) error
	GetCommentsForPost(ctx context.Context, postID, offset, limit int64) ([]*Comment, error)

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Post is a user-authored entry. ImageURL is the public URL of the stored
// image object; a post owns at most one object at any time and the URL is
// the only persisted record of it.
type Post struct {
	ID         int64      `db:"id" json:"id"`
	AuthorID   int64      `db:"author_id" json:"author_id"`
	AuthorName string     `db:"author_name" json:"author_name"`
	Title      string     `db:"title" json:"title"`
	Body       string     `db:"body" json:"body"`
	ImageURL   *string    `db:"image_url" json:"image_url,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type Comment struct {
	ID         int64      `db:"id" json:"id"`
	PostID     int64      `db:"post_id" json:"post_id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Content    string     `db:"content" json:"content"`
	AuthorName string     `db:"author_name" json:"author_name"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
