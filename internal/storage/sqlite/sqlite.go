package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
)

// connPragmas are appended to every DSN. Foreign keys must be on for
// the posts/comments cascade deletes, WAL keeps readers from blocking
// the writer, and busy_timeout waits out lock contention instead of
// returning SQLITE_BUSY immediately.
var connPragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=journal_mode(WAL)",
	"_pragma=busy_timeout(5000)",
}

// NewDB opens the SQLite database at path, creating the file if needed.
func NewDB(path string) (*sqlx.DB, error) {
	dsn := path + "?" + strings.Join(connPragmas, "&")

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open db: %w", err)
	}

	// single writer; a second connection would just queue on the file lock
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Migrate applies any pending migrations from migrationsPath. Already
// being up to date is not an error.
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrations driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration exec failed: %w", err)
	}

	return nil
}
