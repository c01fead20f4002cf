package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	storagepg "github.com/queue-broker-service/internal/storage/postgres"
)

// PostgresContainer wraps a PostgreSQL testcontainer running the real
// queue/message/claim/catalogue/partition schema.
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	DSN       string
}

// NewPostgresContainer creates a new PostgreSQL container for testing,
// migrated with the same migrations the production driver ships.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := storagepg.Migrate(dsn, migrationsDir()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	return &PostgresContainer{
		Container: container,
		Pool:      pool,
		DSN:       dsn,
	}
}

// migrationsDir resolves internal/storage/postgres/migrations relative
// to this file, so tests don't depend on the working directory go test
// is invoked from.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "storage", "postgres", "migrations")
}

// CleanTables truncates every table for test isolation between cases
// sharing one container.
func (pc *PostgresContainer) CleanTables(ctx context.Context) error {
	tables := []string{
		"idempotency_keys",
		"partitions",
		"catalogue_entries",
		"claims",
		"messages",
		"queues",
	}

	for _, table := range tables {
		if _, err := pc.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	return nil
}
