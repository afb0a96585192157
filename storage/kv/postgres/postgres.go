// Package postgres stores slots as rows of a `state` table managed by goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kat-co/vala"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/classportal/core/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

var gooseRunFunc = goose.Run // mockable

type Storage struct {
	db *sqlx.DB
}

var _ store.Storage = (*Storage)(nil)

// Connect opens the database and waits for it to be ready, without touching the schema.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(dsn, "dsn"),
	).Check(); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := ping(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate runs a goose command (up, down, status, version, redo, ...) against the embedded migrations.
func Migrate(db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseRunFunc(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "migrate %s", command)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, slot string) ([]byte, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM state WHERE bucket = $1`, slot)
	if err == sql.ErrNoRows {
		return nil, store.ErrSlotNotFound
	}
	return payload, err
}

func (s *Storage) Set(ctx context.Context, slot string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket, payload, updated_at) VALUES($1, $2, now())
		ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		slot, payload,
	)
	return err
}

func (s *Storage) Delete(ctx context.Context, slot string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = $1`, slot)
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
