// Package store provides the DuckDB-backed canonical Subject Store (C3): it
// persists subjects, aliases, and the per-source dataset version ledger the
// Ingest Orchestrator (C8) uses to decide what to tombstone on refresh.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/logging"
)

// Store wraps a DuckDB connection holding the subject, alias, and dataset
// version tables plus any other component's tables sharing the same file
// (risk policy, audit log, monitoring subscriptions and results).
type Store struct {
	conn *sql.DB
}

// Open creates the database file's parent directory if needed, opens a
// DuckDB connection tuned the way the teacher's database.New does, and runs
// the schema + versioned migrations.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{conn: conn}

	if err := s.installExtensions(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to install extensions: %w", err)
	}
	if err := s.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := s.runVersionedMigrations(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("subject store opened")
	return s, nil
}

// Conn returns the underlying connection, for components (risk, audit,
// monitoring, batch) that need their own tables in the same database file.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func closeQuietly(c interface{ Close() error }) {
	if c != nil {
		_ = c.Close()
	}
}
