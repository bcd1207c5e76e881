package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// RootID is the node every store is seeded with. It has no owner.
const RootID uint64 = 0

var (
	ErrNotFound   = errors.New("node not found")
	ErrRootDelete = errors.New("the root node cannot be deleted")
	ErrNotChild   = errors.New("node is not a child of the given parent")
	ErrEmptyName  = errors.New("name cannot be empty")
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the task database at dbPath and seeds the
// root node with rootName when the database is new.
func Open(dbPath, rootName string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	// One connection: keeps :memory: databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := s.seedRoot(rootName); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding root: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	due TEXT DEFAULT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS links (
	child_id INTEGER PRIMARY KEY,
	parent_id INTEGER NOT NULL,
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS links_parent ON links(parent_id, position);
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id INTEGER NOT NULL,
	start_at TEXT NOT NULL,
	end_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_node ON sessions(node_id, start_at);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureNodeColumns()
}

// ensureNodeColumns upgrades databases created before due dates existed.
func (s *Store) ensureNodeColumns() error {
	required := map[string]string{
		"due": "ALTER TABLE nodes ADD COLUMN due TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(nodes);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedRoot(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Inbox"
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO nodes (id, name, created_at) VALUES (?, ?, ?);`,
		RootID, name, formatTime(time.Now()))
	return err
}

// withinTx runs fn in a transaction, committing on success.
func (s *Store) withinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
