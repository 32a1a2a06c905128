package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/execgate/pkg/db"
	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// TestContext holds the PostgreSQL container shared by every scenario.
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	DatabaseURL string
}

// NewTestContext starts PostgreSQL and applies the schema migrations.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("execgate_test"),
		tcpostgres.WithUsername("execgate"),
		tcpostgres.WithPassword("execgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := runMigrations(migrationsDir, connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), false)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	rawDB, err := database.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	log.Printf("PostgreSQL ready at %s", connStr)
	return &TestContext{
		DB:          database,
		RawDB:       rawDB,
		Container:   pgContainer,
		DatabaseURL: connStr,
	}, nil
}

// Backend empties every table and returns gorm stores over the container.
func (tc *TestContext) Backend(ctx context.Context) (*Backend, error) {
	err := tc.DB.WithContext(ctx).Exec(`
		TRUNCATE events, execution_requests, connections, principal_roles, policies, roles, principals CASCADE
	`).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reset database: %w", err)
	}

	principals := gormstore.NewPrincipalStore(tc.DB)
	return &Backend{
		Principals:  principals,
		Roles:       principals,
		Connections: gormstore.NewConnectionStore(tc.DB),
		Requests:    gormstore.NewRequestStore(tc.DB),
	}, nil
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

func runMigrations(migrationsDir, dbURL string) error {
	m, err := migrate.New("file://"+migrationsDir, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
