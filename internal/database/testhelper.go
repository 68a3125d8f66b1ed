package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// NewInMemory opens a private in-memory database with foreign keys on.
// Migrations are not run and there is no WAL or backup scheduler.
func NewInMemory(logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &DB{
		DB:        sqlDB,
		path:      ":memory:",
		logger:    logger,
		closeChan: make(chan struct{}),
	}, nil
}
