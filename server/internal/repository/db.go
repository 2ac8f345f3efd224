package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres driver

	"github.com/maynagashev/redactvault/server/internal/migrations"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// NewPostgresDB opens a PostgreSQL connection pool and verifies it with a ping.
func NewPostgresDB(dsn string) (*sqlx.DB, error) {
	log.Printf("Connecting to PostgreSQL...")

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err = db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close database after unsuccessful ping: %v", closeErr)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	log.Println("PostgreSQL connection established.")
	return db, nil
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return migrations.Up(ctx, db.DB)
}
