package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// requiredColumns are added in place to tasks tables created by older versions.
var requiredColumns = []struct {
	name string
	ddl  string
}{
	{"section", "TEXT NOT NULL DEFAULT 'General'"},
	{"done_at", "TEXT"},
}

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: sqlite has a single writer, and ":memory:" is per connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if err := migrate(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	for _, col := range requiredColumns {
		if err := ensureColumn(ctx, conn, "tasks", col.name, col.ddl); err != nil {
			return err
		}
	}
	return nil
}

func ensureColumn(ctx context.Context, conn *sql.DB, table, column, ddl string) error {
	var exists int
	err := conn.QueryRowContext(ctx,
		"SELECT 1 FROM pragma_table_info(?) WHERE name = ? LIMIT 1", table, column,
	).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking %s.%s column: %w", table, column, err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl)); err != nil {
		return fmt.Errorf("adding %s.%s column: %w", table, column, err)
	}
	return nil
}
