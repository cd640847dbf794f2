package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("get: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}

func TestIsCorruptionError_Message(t *testing.T) {
	assert.True(t, IsCorruptionError(errors.New("file is not a database")))
	assert.False(t, IsCorruptionError(errors.New("constraint failed")))
	assert.False(t, IsBusyError(errors.New("database is locked")))
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "remarks.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0o644))

	require.NoError(t, RecoverFromCorruption(dbPath))

	assert.NoFileExists(t, dbPath)
	assert.NoFileExists(t, dbPath+"-wal")

	backups, err := filepath.Glob(filepath.Join(dir, "remarks.db.corrupt.*"))
	require.NoError(t, err)
	assert.Len(t, backups, 2, "database and WAL are both moved aside")
}

func TestRecoverFromCorruption_MissingFile(t *testing.T) {
	assert.NoError(t, RecoverFromCorruption(filepath.Join(t.TempDir(), "absent.db")))
}
