package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/database/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolErr  error
	testPoolOnce sync.Once
)

// getSharedTestDatabase returns a shared database pool for all tests.
// Tests are skipped when no container runtime is available.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testPoolErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			testPoolErr = fmt.Errorf("get connection string: %w", err)
			return
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			testPoolErr = fmt.Errorf("connect to database: %w", err)
			return
		}

		testPool = pool
	})

	if testPoolErr != nil {
		t.Skipf("postgres unavailable: %v", testPoolErr)
	}

	return testPool
}

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) *postgres.Repo {
	t.Helper()

	ctx := context.Background()
	pool := getSharedTestDatabase(t)

	tableName := fmt.Sprintf("file_entries_%s", getRandomString(t))
	tables := mediafold.Tables{FileEntries: tableName}

	err := postgres.Migrate(ctx, pool, tables)
	require.NoError(t, err, "failed to migrate")

	err = postgres.ValidateSchema(ctx, pool, tables)
	require.NoError(t, err, "failed to validate schema")

	repo, err := postgres.NewRepo(pool, tables)
	require.NoError(t, err, "failed to create repo")

	t.Cleanup(func() {
		_ = postgres.DropTables(context.Background(), pool, tables)
	})

	return repo
}
