// Package stopsdb maintains a small SQLite full-text index over stop
// names, backing the stop search endpoint. It is populated once from the
// timetable snapshot at startup and read-only afterwards.
package stopsdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"raptor.opentransit.org/internal/timetable"
)

//go:embed schema.sql
var ddl string

// Client wraps the stops database handle.
type Client struct {
	DB *sql.DB
}

// NewClient opens (or creates) the stops database at dbPath and applies
// the schema. Use ":memory:" in tests.
func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening stops database: %w", err)
	}

	ctx := context.Background()
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmed); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying stops schema: %w", err)
		}
	}

	return &Client{DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Populate loads every stop from the snapshot into the index inside one
// transaction. Existing rows are cleared first, so Populate is safe to
// call again after a timetable reload.
func (c *Client) Populate(ctx context.Context, snapshot *timetable.Snapshot) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting stops import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stops"); err != nil {
		return fmt.Errorf("clearing stops: %w", err)
	}
	// External-content FTS5 tables only support the special delete-all
	// command, not plain DELETE.
	if _, err := tx.ExecContext(ctx, "INSERT INTO stops_fts(stops_fts) VALUES('delete-all')"); err != nil {
		return fmt.Errorf("clearing stops index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO stops (id, code, name, lat, lon) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing stops insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, stop := range snapshot.Stops() {
		if _, err := stmt.ExecContext(ctx, stop.ID, stop.Code, stop.Name, stop.Lat, stop.Lon); err != nil {
			return fmt.Errorf("inserting stop %d: %w", stop.ID, err)
		}
	}

	return tx.Commit()
}
