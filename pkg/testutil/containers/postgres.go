//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/lib/pq"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	Container testcontainers.Container
	ConnInfo  string
	DB        *sql.DB
}

// NewPostgresContainer starts a new PostgreSQL container and opens a
// database/sql handle against it.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("reentry_test"),
		tcpostgres.WithUsername("reentry"),
		tcpostgres.WithPassword("reentry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connInfo, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", connInfo)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		ConnInfo:  connInfo,
		DB:        db,
	}
}

// Truncate empties the named tables. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return err
		}
	}
	return nil
}
