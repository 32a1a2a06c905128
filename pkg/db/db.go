package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
	// Debug enables SQL query logging
	Debug bool
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("database_url is not configured (set EXECGATE_DATABASE_URL or DATABASE_URL)")
	}

	return Open(postgres.New(postgres.Config{
		DSN:                  dbURL,
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), cfg.Debug)
}

// Open wraps an already configured dialector, e.g. one built on an
// existing *sql.DB.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	// Default to silent logging unless debug logging is requested
	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// URL returns the database URL from environment.
// Returns empty string if neither EXECGATE_DATABASE_URL nor DATABASE_URL is set.
func URL() string {
	if url := os.Getenv("EXECGATE_DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("DATABASE_URL")
}
