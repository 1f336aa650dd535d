// Package store persists laid out documents in SQLite, keyed by the content
// of a score and the options it was laid out with.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/staffline/core/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS layouts (
	key      TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	lines    INTEGER NOT NULL,
	measures INTEGER NOT NULL,
	width    REAL NOT NULL,
	height   REAL NOT NULL,
	document BLOB NOT NULL,
	created  INTEGER NOT NULL
)`

// Entry is one stored layout.
type Entry struct {
	Key      string
	Source   string
	Lines    int
	Measures int
	Width    float64
	Height   float64

	// Document is the JSON encoding of the laid out document.
	Document []byte
	Created  time.Time
}

// Stats summarizes the store contents.
type Stats struct {
	Entries int64
	Bytes   int64
}

// Info describes the SQLite driver compiled in.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{DriverName: driverName, DriverType: driverType, Package: driverPackage}
}

// Key derives the store key of a score laid out with the given options
// fingerprint.
func Key(source []byte, fingerprint string) string {
	h := blake3.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Store is a SQLite-backed layout store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialize", path, err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry stored under key, or a NotFoundError.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT key, source, lines, measures, width, height, document, created FROM layouts WHERE key = ?", key)

	var e Entry
	var created int64
	err := row.Scan(&e.Key, &e.Source, &e.Lines, &e.Measures, &e.Width, &e.Height, &e.Document, &created)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("layout", key)
	}
	if err != nil {
		return nil, errors.NewIO("read", s.path, err)
	}
	e.Created = time.Unix(0, created).UTC()
	return &e, nil
}

// Put stores e, replacing any entry with the same key. A zero Created is
// set to the current time.
func (s *Store) Put(ctx context.Context, e *Entry) error {
	if e.Key == "" {
		return errors.NewValidation("key", "store key is empty")
	}
	if e.Created.IsZero() {
		e.Created = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO layouts (key, source, lines, measures, width, height, document, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.Key, e.Source, e.Lines, e.Measures, e.Width, e.Height, e.Document, e.Created.UnixNano())
	if err != nil {
		return errors.NewIO("write", s.path, err)
	}
	return nil
}

// Delete removes the entry under key. Deleting a missing key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM layouts WHERE key = ?", key); err != nil {
		return errors.NewIO("delete", s.path, err)
	}
	return nil
}

// Prune removes entries created before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM layouts WHERE created < ?", cutoff.UnixNano())
	if err != nil {
		return 0, errors.NewIO("prune", s.path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewIO("prune", s.path, err)
	}
	return n, nil
}

// Stats counts the stored entries and their document bytes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(LENGTH(document)), 0) FROM layouts").Scan(&st.Entries, &st.Bytes)
	if err != nil {
		return Stats{}, errors.NewIO("read", s.path, err)
	}
	return st, nil
}
