// Package sqlite stores slots as rows of a `state(bucket, payload)` table in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/trezcool/classportal/core/store"
)

const schema = `CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

type Storage struct {
	db *sqlx.DB
}

var _ store.Storage = (*Storage)(nil)

// Open opens the SQLite file at path (":memory:" is accepted) and ensures the state table exists.
func Open(ctx context.Context, path string) (*Storage, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(path, "path"),
	).Check(); err != nil {
		return nil, err
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.Wrap(err, "creating storage directory")
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// a single connection serializes writers and keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating state table")
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Get(ctx context.Context, slot string) ([]byte, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM state WHERE bucket = ?`, slot)
	if err == sql.ErrNoRows {
		return nil, store.ErrSlotNotFound
	}
	return payload, err
}

func (s *Storage) Set(ctx context.Context, slot string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		slot, payload,
	)
	return err
}

func (s *Storage) Delete(ctx context.Context, slot string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, slot)
	return err
}

func (s *Storage) Slots(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	if err := s.db.SelectContext(ctx, &names, `SELECT bucket FROM state ORDER BY bucket`); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Storage) Close() error { return s.db.Close() }
