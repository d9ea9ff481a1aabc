package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold"
	"github.com/mediafold/mediafold/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) (*sqlite.Repo, func()) {
	t.Helper()

	ctx := context.Background()

	// Use a unique table name for each test to avoid conflicts
	tableName := fmt.Sprintf("file_entries_%s", getRandomString(t))
	tables := mediafold.Tables{FileEntries: tableName}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open")

	err = sqlite.Migrate(ctx, db, tables)
	require.NoError(t, err, "failed to migrate")

	err = sqlite.ValidateSchema(ctx, db, tables)
	require.NoError(t, err, "failed to validate schema")

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err, "failed to create repo")

	cleanup := func() {
		_ = db.Close()
	}

	return repo, cleanup
}
