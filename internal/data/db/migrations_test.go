package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "remarks.db"), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func openRawConn(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "raw.db")
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", dbPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "remarks.db")

	database, err := Open(path, DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	assert.FileExists(t, path)
}

func TestMigrateUp_FreshDB(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	applied, err := appliedVersions(ctx, database.Conn())
	require.NoError(t, err)

	migrations, err := newMigrator(zerolog.Nop()).load()
	require.NoError(t, err)

	require.Len(t, applied, len(migrations))
	for _, m := range migrations {
		assert.True(t, applied[m.Version], "version %d should be applied", m.Version)
	}

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM notifications LIMIT 0")
	require.NoError(t, err, "notifications table should exist")

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM comments LIMIT 0")
	require.NoError(t, err, "comments table should exist")
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)

	err := newMigrator(zerolog.Nop()).up(context.Background(), database.Conn())
	assert.NoError(t, err, "second run should be idempotent")
}

func TestMigrateUp_RefusesNewerSchema(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, err := database.Conn().ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (9999, 'future', 1)")
	require.NoError(t, err)

	err = newMigrator(zerolog.Nop()).up(ctx, database.Conn())
	require.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	conn := database.Conn()

	_, err := database.Queries().InsertNotification(ctx, InsertNotificationParams{Level: "info", Message: "kept", CreatedAt: 1})
	require.NoError(t, err)

	err = MigrateDown(ctx, conn, 1)
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, "SELECT 1 FROM comments LIMIT 0")
	require.Error(t, err, "comments should not exist after down migration")

	count, err := database.Queries().CountNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "notification row should be preserved")
}

func TestMigrateDown_InvalidN(t *testing.T) {
	conn := openRawConn(t)
	ctx := context.Background()

	err := MigrateDown(ctx, conn, 0)
	require.Error(t, err, "n=0 should fail")

	err = MigrateDown(ctx, conn, -1)
	require.Error(t, err, "n=-1 should fail")
}

func TestMigrateDown_TooMany(t *testing.T) {
	database := openTestDB(t)

	migrations, err := newMigrator(zerolog.Nop()).load()
	require.NoError(t, err)

	err = MigrateDown(context.Background(), database.Conn(), len(migrations)+1)
	assert.Error(t, err, "requesting more down migrations than applied should fail")
}

func TestLoadMigrations_Valid(t *testing.T) {
	migrations, err := newMigrator(zerolog.Nop()).load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version,
			"migrations should be in ascending version order")
	}

	for _, m := range migrations {
		assert.NotEmpty(t, m.UpSQL, "migration %d up SQL should not be empty", m.Version)
		assert.NotEmpty(t, m.DownSQL, "migration %d down SQL should not be empty", m.Version)
		assert.NotEmpty(t, m.Name, "migration %d name should not be empty", m.Version)
	}
}

func TestLoadMigrations_Pairing(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name: "missing down",
			files: fstest.MapFS{
				"m/0001_a.up.sql": {Data: []byte("SELECT 1")},
			},
			wantErr: "no down file",
		},
		{
			name: "missing up",
			files: fstest.MapFS{
				"m/0001_a.down.sql": {Data: []byte("SELECT 1")},
			},
			wantErr: "no up file",
		},
		{
			name: "bad name",
			files: fstest.MapFS{
				"m/first.sql": {Data: []byte("SELECT 1")},
			},
			wantErr: "invalid migration filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &migrator{fsys: tt.files, dir: "m", log: zerolog.Nop()}
			_, err := m.load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	m := &migrator{fsys: fstest.MapFS{
		"m/0010_b.up.sql":   {Data: []byte("up b")},
		"m/0010_b.down.sql": {Data: []byte("down b")},
		"m/0002_a.up.sql":   {Data: []byte("up a")},
		"m/0002_a.down.sql": {Data: []byte("down a")},
	}, dir: "m", log: zerolog.Nop()}

	migrations, err := m.load()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, Migration{Version: 2, Name: "a", UpSQL: "up a", DownSQL: "down a"}, migrations[0])
	assert.Equal(t, 10, migrations[1].Version)
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename      string
		wantVersion   int
		wantName      string
		wantDirection string
		wantErr       bool
	}{
		{"0001_notifications.up.sql", 1, "notifications", "up", false},
		{"0001_notifications.down.sql", 1, "notifications", "down", false},
		{"0012_comment_reactions.up.sql", 12, "comment_reactions", "up", false},
		{"bad.sql", 0, "", "", true},
		{"0001_initial.sql", 0, "", "", true},
		{"0000_zero.up.sql", 0, "", "", true},
		{"abc_notnumber.up.sql", 0, "", "", true},
		{"0001_.up.sql", 0, "", "", true},
		{"0001_a.sideways.sql", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, direction, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantDirection, direction)
		})
	}
}

func TestComments_DeleteCascadesToReplies(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	q := database.Queries()

	parent := Comment{ID: "p", SandboxID: "sb", Content: "root", UserID: "u", InsertedAt: 1, UpdatedAt: 1}
	child := Comment{ID: "c", SandboxID: "sb", ParentID: sql.NullString{String: "p", Valid: true}, Content: "reply", UserID: "u", InsertedAt: 2, UpdatedAt: 2}
	require.NoError(t, q.InsertComment(ctx, parent))
	require.NoError(t, q.InsertComment(ctx, child))

	n, err := q.DeleteComment(ctx, "sb", "p")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := q.ListSandboxComments(ctx, "sb")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
