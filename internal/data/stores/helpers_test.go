package stores

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colonyops/remarks/internal/data/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "remarks.db"), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}
