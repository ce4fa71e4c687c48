// Package migrations embeds the goose sql migrations for the tokens
// table and registers the go migrations that cannot be written in
// portable sql.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

func init() {
	goose.AddNamedMigrationContext("00002_add_record_columns.go", upRecordColumns, downRecordColumns)
}

// recordColumns are added to a tokens table created before this module
// managed the schema, which holds only the three token columns.
// created_at has no default as sqlite cannot add a column defaulting to
// CURRENT_TIMESTAMP; inserts set it explicitly.
var recordColumns = []struct {
	name, definition string
}{
	{"id", "id UUID"},
	{"created_at", "created_at TIMESTAMP"},
}

func upRecordColumns(ctx context.Context, tx *sql.Tx) error {
	existing, err := tableColumns(ctx, tx, "tokens")
	if err != nil {
		return err
	}
	for _, c := range recordColumns {
		if existing[c.name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "ALTER TABLE tokens ADD COLUMN "+c.definition); err != nil {
			return fmt.Errorf("add column %s: %w", c.name, err)
		}
	}
	return nil
}

// the columns may hold data, so they are left in place
func downRecordColumns(ctx context.Context, tx *sql.Tx) error {
	return nil
}

// tableColumns returns the lower cased column names of table
func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	columns := make(map[string]bool, len(names))
	for _, n := range names {
		columns[strings.ToLower(n)] = true
	}
	return columns, rows.Err()
}
