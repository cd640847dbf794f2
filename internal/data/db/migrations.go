package db

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// ErrSchemaTooNew is returned when the database carries migrations this
// build does not know, usually after running a newer release.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

// Migration is one versioned schema change with its rollback.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// migrator applies the migrations found in dir of fsys.
type migrator struct {
	fsys fs.FS
	dir  string
	log  zerolog.Logger
}

func newMigrator(log zerolog.Logger) *migrator {
	return &migrator{fsys: embeddedMigrations, dir: "migrations", log: log}
}

// load reads NNNN_name.up.sql / NNNN_name.down.sql pairs sorted by version.
// Every version needs both halves and may appear only once per direction.
func (m *migrator) load() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, direction, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", entry.Name(), err)
		}

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: name}
			byVersion[version] = mig
		}

		slot := &mig.UpSQL
		if direction == "down" {
			slot = &mig.DownSQL
		}
		if *slot != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %04d", direction, version)
		}
		*slot = string(content)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		switch {
		case mig.UpSQL == "":
			return nil, fmt.Errorf("migration %04d has down file but no up file", mig.Version)
		case mig.DownSQL == "":
			return nil, fmt.Errorf("migration %04d has up file but no down file", mig.Version)
		}
		migrations = append(migrations, *mig)
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return migrations, nil
}

// parseFilename splits "NNNN_name.up.sql" into its version, name and direction.
func parseFilename(filename string) (version int, name, direction string, err error) {
	base, ok := strings.CutSuffix(filename, ".sql")
	if !ok {
		return 0, "", "", fmt.Errorf("expected .up.sql or .down.sql suffix, got %q", filename)
	}
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return 0, "", "", fmt.Errorf("expected .up.sql or .down.sql suffix, got %q", filename)
	}
	base, direction = base[:dot], base[dot+1:]
	if direction != "up" && direction != "down" {
		return 0, "", "", fmt.Errorf("unknown direction %q", direction)
	}

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", errors.New("expected format NNNN_name.{up,down}.sql")
	}

	version, err = strconv.Atoi(num)
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q is not a valid integer: %w", num, err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}

	return version, name, direction, nil
}

// up applies every pending migration in order. It refuses to touch a
// database that already has versions beyond the newest known one.
func (m *migrator) up(ctx context.Context, conn *sql.DB) error {
	migrations, err := m.load()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	if len(migrations) > 0 {
		latest := migrations[len(migrations)-1].Version
		for v := range applied {
			if v > latest {
				return fmt.Errorf("%w: found version %04d, latest known %04d", ErrSchemaTooNew, v, latest)
			}
		}
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}

		m.log.Debug().Int("version", mig.Version).Str("name", mig.Name).Msg("applying migration")
		err := inTx(ctx, conn, mig.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			mig.Version, mig.Name, time.Now().UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

// down reverts the newest n applied migrations.
func (m *migrator) down(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, err := m.load()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	var toRevert []Migration
	for _, mig := range slices.Backward(migrations) {
		if applied[mig.Version] {
			toRevert = append(toRevert, mig)
		}
	}

	if n > len(toRevert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(toRevert))
	}

	for _, mig := range toRevert[:n] {
		m.log.Debug().Int("version", mig.Version).Str("name", mig.Name).Msg("reverting migration")
		err := inTx(ctx, conn, mig.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", mig.Version)
		if err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

// MigrateDown reverts the last n applied migrations of the embedded set.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	return newMigrator(zerolog.Nop()).down(ctx, conn, n)
}

// appliedVersions returns the recorded versions, creating the tracking table
// on first use.
func appliedVersions(ctx context.Context, conn *sql.DB) (map[int]bool, error) {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// inTx runs a schema statement and its bookkeeping statement atomically.
func inTx(ctx context.Context, conn *sql.DB, schemaSQL, recordSQL string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, recordSQL, args...); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}
