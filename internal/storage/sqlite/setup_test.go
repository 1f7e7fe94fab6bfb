package sqlite

import (
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"testing"
)

func gen60CharString() string {
	hashBytes := make([]byte, 45)
	_, _ = rand.Read(hashBytes)
	return base64.RawURLEncoding.EncodeToString(hashBytes)
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_blog.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
