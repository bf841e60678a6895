package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestCatalog creates a catalog with a unique table name for test isolation
func setupTestCatalog(t *testing.T) depot.Catalog {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("artifacts_%s", getRandomString(t))
	tables := depot.Tables{Artifacts: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetCatalog()
}
