package beats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	_ "modernc.org/sqlite"
)

// Store persists beats in SQLite
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultDBPath returns ~/.local/share/beatmachine/beats.db (XDG aware)
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "beatmachine", "beats.db")
}

// OpenStore opens (creating if needed) the database at path and
// applies migrations.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Beats},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Beats = `
CREATE TABLE IF NOT EXISTS beats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	sound TEXT NOT NULL,
	author_id TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_beats_author ON beats(author_id);
`

// Create stores an unsaved beat and returns it with its id
func (s *Store) Create(ctx context.Context, b Beat) (Beat, error) {
	if b.Saved() {
		return Beat{}, fault.Wrap(fault.New("beat already saved"), ftag.With(ftag.InvalidArgument))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("begin create"))
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM beats WHERE name = ?", b.Name).Scan(&exists); err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("check beat name"))
	}
	if exists > 0 {
		return Beat{}, fault.Wrap(fault.New("beat name taken"),
			fmsg.WithDesc("beat name taken", MsgTaken),
			ftag.With(ftag.AlreadyExists))
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO beats (name, sound, author_id, created_at) VALUES (?, ?, ?, ?)",
		b.Name, b.Sound, b.AuthorID, b.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("insert beat"))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("read beat id"))
	}
	if err := tx.Commit(); err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("commit create"))
	}

	b.State = Saved(id)
	return b, nil
}

// Get fetches a beat by id
func (s *Store) Get(ctx context.Context, id int64) (Beat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRowContext(ctx,
		"SELECT id, name, sound, author_id, created_at FROM beats WHERE id = ?", id)
	b, err := scanBeat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Beat{}, fault.Wrap(fault.New(fmt.Sprintf("beat %d not found", id)), ftag.With(ftag.NotFound))
	}
	if err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("get beat"))
	}
	return b, nil
}

// List returns all beats, oldest first
func (s *Store) List(ctx context.Context) ([]Beat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx,
		"SELECT id, name, sound, author_id, created_at FROM beats ORDER BY id")
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("list beats"))
	}
	defer rows.Close()

	out := []Beat{}
	for rows.Next() {
		b, err := scanBeat(rows)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("scan beat"))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("iterate beats"))
	}
	return out, nil
}

// Delete removes a beat owned by author and returns it
func (s *Store) Delete(ctx context.Context, id int64, author string) (Beat, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Beat{}, err
	}
	if b.AuthorID != author {
		return Beat{}, fault.Wrap(fault.New(fmt.Sprintf("beat %d belongs to another author", id)), ftag.With(ftag.PermissionDenied))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, "DELETE FROM beats WHERE id = ? AND author_id = ?", id, author)
	if err != nil {
		return Beat{}, fault.Wrap(err, fmsg.With("delete beat"))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Beat{}, fault.Wrap(fault.New(fmt.Sprintf("beat %d not found", id)), ftag.With(ftag.NotFound))
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBeat(sc scanner) (Beat, error) {
	var (
		id int64
		b  Beat
		at string
	)
	if err := sc.Scan(&id, &b.Name, &b.Sound, &b.AuthorID, &at); err != nil {
		return Beat{}, err
	}
	created, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Beat{}, fmt.Errorf("parse created_at %q: %w", at, err)
	}
	b.State = Saved(id)
	b.CreatedAt = created
	return b, nil
}
