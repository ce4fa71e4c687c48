// Package store persists QuickBooks Online token records in a
// relational table. Records are append-only: every successful
// authorization adds a row and nothing here updates or deletes one.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rorycl/QBOConnect/store/migrations"
	log "github.com/sirupsen/logrus"
)

// DriverPostgres is the database/sql driver name registered by pgx
const DriverPostgres = "pgx"

// DialectPostgres is the goose dialect for DriverPostgres
const DialectPostgres = "postgres"

// Record is one stored authorization
type Record struct {
	ID           uuid.UUID
	AccessToken  string
	RefreshToken string
	RealmID      string
}

// PersistenceError reports that the store could not accept a write
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %s", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store is the credential store
type Store struct {
	db *sql.DB
}

// Open returns a Store for dsn. No connection is made until the store
// is used; call Ping to check the database is reachable.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing database handle
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate brings the schema up to date with the embedded migrations
func (s *Store) Migrate(ctx context.Context, dialect string) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(log.StandardLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// Insert stores a new token record. Any failure, including an
// unreachable database, is returned as a *PersistenceError.
func (s *Store) Insert(ctx context.Context, accessToken, refreshToken, realmID string) (*Record, error) {
	r := &Record{
		ID:           uuid.New(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RealmID:      realmID,
	}
	query := `
		INSERT INTO tokens (id, access_token, refresh_token, realm_id, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	`
	if _, err := s.db.ExecContext(ctx, query, r.ID.String(), r.AccessToken, r.RefreshToken, r.RealmID); err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}
	return r, nil
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
