// Package store implements the persistent task and conversation store.
//
// It runs on SQLite (modernc, pure Go) by default and on Postgres (pgx)
// when DATABASE_URL points at one. Every public operation is owner-scoped
// and runs in a single transaction: a result is returned only after
// commit, and any failure rolls the whole operation back.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Dialects ────────────────────────────────────────────────────────────────

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// sqlitePragmas are applied by the driver on every new connection, so they
// hold for the whole pool rather than for whichever connection ran them.
// _txlock=immediate takes the write lock at BEGIN, which lets busy_timeout
// cover writers racing from another process (the stdio tool server).
var sqlitePragmas = []string{
	"_pragma=journal_mode(WAL)",
	"_pragma=busy_timeout(5000)",
	"_pragma=synchronous(NORMAL)",
	"_pragma=foreign_keys(1)",
	"_txlock=immediate",
}

// target is a parsed DATABASE_URL.
type target struct {
	driver  string
	dsn     string
	dialect dialect
	path    string // sqlite file path, empty for postgres and in-memory
}

// parseTarget maps DATABASE_URL onto a driver. Accepted forms:
// sqlite://relative.db, sqlite:///abs/path.db, a bare file path, and
// postgres:// or postgresql:// URLs.
func parseTarget(databaseURL string) (target, error) {
	raw := strings.TrimSpace(databaseURL)
	switch {
	case raw == "":
		return target{}, fmt.Errorf("store: empty database url")

	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return target{driver: "pgx", dsn: raw, dialect: dialectPostgres}, nil

	case strings.HasPrefix(raw, "sqlite://"), strings.HasPrefix(raw, "sqlite:"), !strings.Contains(raw, "://"):
		path := strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite://"), "sqlite:")
		if path == "" {
			return target{}, fmt.Errorf("store: sqlite url %q has no path", raw)
		}
		t := target{driver: "sqlite", dialect: dialectSQLite}
		if path != ":memory:" {
			t.path = path
		}
		t.dsn = path + "?" + strings.Join(sqlitePragmas, "&")
		return t, nil

	default:
		return target{}, fmt.Errorf("store: unsupported database url scheme in %q", raw)
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the task and conversation store.
type Store struct {
	db      *sql.DB
	dialect dialect
	hooks   storeHooks
}

type storeHooks struct {
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		beginTx: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *Store) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(ctx, s.db)
	}
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// Open connects to databaseURL, verifies the connection and creates the
// schema if it does not exist yet.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	t, err := parseTarget(databaseURL)
	if err != nil {
		return nil, err
	}

	if t.path != "" {
		if dir := filepath.Dir(t.path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("store: create data dir: %w", err)
			}
		}
	}

	db, err := openDB(t.driver, t.dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s database: %w", t.dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect %s database: %w", t.dialect, err)
	}

	s := &Store{db: db, dialect: t.dialect, hooks: defaultStoreHooks()}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	boolCol := "INTEGER NOT NULL DEFAULT 0"
	if s.dialect == dialectPostgres {
		idCol = "BIGSERIAL PRIMARY KEY"
		boolCol = "BOOLEAN NOT NULL DEFAULT FALSE"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id          ` + idCol + `,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT,
			completed   ` + boolCol + `,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id         ` + idCol + `,
			user_id    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              ` + idCol + `,
			conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			user_id         TEXT NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// withTx runs fn inside one transaction. fn's error aborts and rolls back.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$n for postgres.
// Queries in this package never contain a literal '?'.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
