package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists whole profiles. Saves are atomic: readers never observe a
// partially updated profile. Scores are never stored — always derived.
type Store interface {
	Create(ctx context.Context, kind Kind, name string) (*Profile, error)
	Load(ctx context.Context, id int64) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	List(ctx context.Context) ([]ProfileInfo, error)
	Close() error
}

// ProfileInfo is a listing row for the pipeline dashboard.
type ProfileInfo struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SQLiteStore stores each profile as one JSON row, so a save is a single
// statement and atomic by construction.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath is the local profile database location.
func DefaultDBPath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_canvas", "canvas.db")
}

// OpenSQLiteStore opens (or creates) the SQLite profile database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("store: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS profiles (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		name       TEXT NOT NULL,
		sections   TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create initializes an empty profile from the schema for kind and inserts it.
func (s *SQLiteStore) Create(ctx context.Context, kind Kind, name string) (*Profile, error) {
	p, err := New(kind, name, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(p.Sections)
	if err != nil {
		return nil, fmt.Errorf("store: marshal sections: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (kind, name, sections, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		string(kind), name, string(data),
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("store: insert profile: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	return p, nil
}

// Load reads one profile by ID.
func (s *SQLiteStore) Load(ctx context.Context, id int64) (*Profile, error) {
	var (
		p                    Profile
		kind, sections       string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, sections, created_at, updated_at FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &kind, &p.Name, &sections, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load profile %d: %w", id, err)
	}
	p.Kind = Kind(kind)
	if err := json.Unmarshal([]byte(sections), &p.Sections); err != nil {
		return nil, fmt.Errorf("store: unmarshal sections for %d: %w", id, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// Save replaces the stored profile in one statement.
func (s *SQLiteStore) Save(ctx context.Context, p *Profile) error {
	data, err := json.Marshal(p.Sections)
	if err != nil {
		return fmt.Errorf("store: marshal sections: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, sections = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(data), p.UpdatedAt.Format(time.RFC3339), p.ID)
	if err != nil {
		return fmt.Errorf("store: save profile %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrProfileNotFound, p.ID)
	}
	return nil
}

// List returns all profiles, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]ProfileInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, updated_at FROM profiles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileInfo
	for rows.Next() {
		var (
			info      ProfileInfo
			kind, upd string
		)
		if err := rows.Scan(&info.ID, &kind, &info.Name, &upd); err != nil {
			continue
		}
		info.Kind = Kind(kind)
		info.UpdatedAt, _ = time.Parse(time.RFC3339, upd)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
