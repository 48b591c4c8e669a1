// Package headwaydb persists headway observations and summary rows to
// SQLite, so the dashboard and ad-hoc queries can work from the same
// numbers the reports were generated from.
package headwaydb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
)

//go:embed schema.sql
var ddl string

// Config holds the database settings.
type Config struct {
	DBPath  string
	verbose bool
}

// NewConfig creates a database configuration.
func NewConfig(dbPath string, verbose bool) Config {
	return Config{DBPath: dbPath, verbose: verbose}
}

// Client is the entry point for result persistence.
type Client struct {
	config Config
	DB     *sql.DB
}

// NewClient opens (creating if necessary) the results database.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create DB: %w", err)
	}
	return &Client{config: config, DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) GetDBPath() string {
	return c.config.DBPath
}

func createDB(config Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	if err := performDatabaseMigration(ctx, db); err != nil {
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	configureConnectionPool(db, config)

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

// configureConnectionPool sets up appropriate connection pool settings for
// SQLite. Each connection to a :memory: database is a separate database, so
// in-memory use is limited to a single connection.
func configureConnectionPool(db *sql.DB, config Config) {
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
}
