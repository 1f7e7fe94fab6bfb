package sqlite

import (
	"context"
	"errors"
	"testing"

	"snapblog/internal/storage"
)

func TestCommentLifecycle(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	author := seedUser(t, store, "post_author")
	commenter := seedUser(t, store, "commenter")

	post, err := store.CreatePost(ctx, author.ID, "commented", "text", "")
	if err != nil {
		t.Fatalf("seeding post: %v", err)
	}

	comment, err := store.CreateComment(ctx, post.ID, commenter.ID, "nice picture")
	if err != nil {
		t.Fatalf("creating comment: %v", err)
	}
	if comment.AuthorName != commenter.Username {
		t.Errorf("author name: got %q, want %q", comment.AuthorName, commenter.Username)
	}

	comments, err := store.GetCommentsForPost(ctx, post.ID, 0, 10)
	if err != nil {
		t.Fatalf("listing comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}

	// only the comment's author may delete it
	if err := store.DeleteComment(ctx, comment.ID, author.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("foreign delete: got %v, want %v", err, storage.ErrNotFound)
	}

	if err := store.DeleteComment(ctx, comment.ID, commenter.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}

	comments, err = store.GetCommentsForPost(ctx, post.ID, 0, 10)
	if err != nil {
		t.Fatalf("listing comments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("deleted comment still listed")
	}
}

func TestCreateCommentValidation(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	author := seedUser(t, store, "strict_author")
	post, err := store.CreatePost(ctx, author.ID, "strict", "text", "")
	if err != nil {
		t.Fatalf("seeding post: %v", err)
	}

	if _, err := store.CreateComment(ctx, post.ID, author.ID, ""); err == nil {
		t.Error("expected validation error for empty comment")
	}
}
