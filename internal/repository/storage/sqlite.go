package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = FULL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

type Storage struct {
	Connection *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path and applies the move log schema.
func NewSQLiteStorage(ctx context.Context, path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	// a single connection keeps foreign_keys on and serializes writers
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	storage := &Storage{Connection: conn}
	if err = storage.Init(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return storage, nil
}

// Init applies pragmas and creates the tables if they do not exist.
func (that *Storage) Init(ctx context.Context) error {
	for _, pragma := range pragmas {
		if _, err := that.Connection.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("can't execute %q: %w", pragma, err)
		}
	}

	if _, err := that.Connection.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("can't create tables: %w", err)
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
