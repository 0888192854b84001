package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

// EnsureDatabase creates the configured database if it does not exist. It
// connects to the server's default 'postgres' database to do so.
func EnsureDatabase(ctx context.Context, c config.DatabaseConfig) error {
	cfg := FromCentralConfig(c)
	if cfg.DBName == "" {
		return fmt.Errorf("database name is empty")
	}

	admin := cfg
	admin.DBName = "postgres"

	conn, err := openSQLDB(admin)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	if err := createDatabaseIfNotExists(ctx, conn, cfg.DBName); err != nil {
		return fmt.Errorf("failed to create database %q: %w", cfg.DBName, err)
	}
	return nil
}

func createDatabaseIfNotExists(ctx context.Context, conn *sql.DB, dbName string) error {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := conn.QueryRowContext(ctx, query, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}
