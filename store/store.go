// Package store persists instance snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/polymodel/model"
	"github.com/chazu/polymodel/wire"
)

var log = commonlog.GetLogger("polymodel.store")

// ErrInstanceNotFound indicates the requested instance doesn't exist
var ErrInstanceNotFound = errors.New("instance not found")

// Store handles SQLite storage for instance snapshots.
type Store struct {
	db    *sql.DB
	path  string
	codec wire.Codec
	mu    sync.Mutex
}

// Entry is a stored snapshot's metadata.
type Entry struct {
	ID      string
	Class   string
	Phase   string
	Codec   string
	SavedAt time.Time
}

// Open opens (creating if needed) the snapshot database at path. New
// snapshots are encoded with codec; stored ones are decoded with whatever
// codec wrote them.
func Open(path string, codec wire.Codec) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id       TEXT PRIMARY KEY,
		class    TEXT NOT NULL,
		phase    TEXT NOT NULL,
		codec    TEXT NOT NULL,
		data     BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path, codec: codec}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save snapshots inst and persists it under its ID.
func (s *Store) Save(ctx context.Context, inst *model.Instance) error {
	snap, err := inst.Snapshot()
	if err != nil {
		return err
	}
	return s.SaveSnapshot(ctx, snap)
}

// SaveSnapshot persists a snapshot, replacing any previous one with the
// same ID.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("%w: snapshot has no id", model.ErrInvalidSnapshot)
	}
	data, err := wire.MarshalSnapshot(s.codec, snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO snapshots (id, class, phase, codec, data, saved_at) VALUES (?, ?, ?, ?, ?, ?)",
		snap.ID, snap.Class, snap.Phase, s.codec.Name(), data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	log.Debugf("saved %s (%d bytes, %s)", snap.ID, len(data), s.codec.Name())
	return nil
}

// LoadSnapshot retrieves a snapshot by instance ID.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (model.Snapshot, error) {
	var codecName string
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT codec, data FROM snapshots WHERE id = ?", id).Scan(&codecName, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snapshot{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
		}
		return model.Snapshot{}, fmt.Errorf("querying snapshot: %w", err)
	}

	codec, err := wire.ByName(codecName)
	if err != nil {
		return model.Snapshot{}, err
	}
	return wire.UnmarshalSnapshot(codec, data)
}

// Load retrieves a snapshot and restores it into r.
func (s *Store) Load(ctx context.Context, r *model.Registry, id string) (*model.Instance, error) {
	snap, err := s.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Restore(snap)
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	return nil
}

// List returns the stored snapshots ordered by ID. A non-empty class
// restricts the list to snapshots of that class.
func (s *Store) List(ctx context.Context, class string) ([]Entry, error) {
	query := "SELECT id, class, phase, codec, saved_at FROM snapshots"
	var args []any
	if class != "" {
		query += " WHERE class = ?"
		args = append(args, class)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var savedAt int64
		if err := rows.Scan(&e.ID, &e.Class, &e.Phase, &e.Codec, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		e.SavedAt = time.Unix(0, savedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
