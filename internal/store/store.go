package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	// Postgres driver registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database.
type Config struct {
	Driver string
	DSN    string
}

// Store holds the database handle and provides access to repositories.
type Store struct {
	db      *sqlx.DB
	dialect string
	seq     *sequenceCounter
}

// Open connects to the database described by cfg, applies SQLite pragmas
// when relevant and creates missing tables.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driverName, dialectName, err := resolveDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dialectName == dialect.SQLite {
		// A single connection keeps writes serialized and in-memory
		// databases alive for the life of the store.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	s := &Store{db: sqlx.NewDb(db, driverName), dialect: dialectName}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.seq, err = newSequenceCounter(ctx, s.db.DB, s.builder())
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func resolveDriver(name string) (driverName, dialectName string, err error) {
	switch name {
	case "", DriverSQLite:
		return "sqlite", dialect.SQLite, nil
	case DriverPostgres, "pgx":
		return "pgx", dialect.Postgres, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// AttemptRepo returns the attempt log backed by this store.
func (s *Store) AttemptRepo() AttemptRepo {
	return &attemptRepo{db: s.db, b: s.builder(), seq: s.seq}
}

// ItemStatsRepo returns the item statistics repo backed by this store.
func (s *Store) ItemStatsRepo() ItemStatsRepo {
	return &itemStatsRepo{db: s.db, b: s.builder()}
}

// ReviewRepo returns the review card repo backed by this store.
func (s *Store) ReviewRepo() ReviewRepo {
	return &reviewRepo{db: s.db, b: s.builder()}
}

// SnapshotRepo returns the mastery snapshot repo backed by this store.
func (s *Store) SnapshotRepo() SnapshotRepo {
	return &snapshotRepo{db: s.db, b: s.builder()}
}

// CatalogRepo returns the catalog repo backed by this store.
func (s *Store) CatalogRepo() CatalogRepo {
	return &catalogRepo{db: s.db, b: s.builder()}
}

// applyPragmas configures SQLite for a single-process service.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. RECALL_DB environment variable
// 2. $XDG_DATA_HOME/recall/recall.db
// 3. ~/.local/share/recall/recall.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("RECALL_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "recall", "recall.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
