package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/huangsam/mergespot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteTables lists the user tables present in a SQLite database file.
func sqliteTables(t *testing.T, path string) map[string]bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables[name] = true
	}
	require.NoError(t, rows.Err())
	return tables
}

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	err := MigrateAnalysis(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestMigrateAnalysis_UnsupportedBackend(t *testing.T) {
	assert.Error(t, MigrateAnalysis("oracle", "", -1))
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))
	tables := sqliteTables(t, dbPath)
	assert.True(t, tables[analysisRunsTable])
	assert.True(t, tables[fileConflictsTable])

	// Already at latest
	assert.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))

	// Step down to the first migration
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 1))
	tables = sqliteTables(t, dbPath)
	assert.True(t, tables[analysisRunsTable])
	assert.False(t, tables[fileConflictsTable])

	// Roll everything back
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 0))
	tables = sqliteTables(t, dbPath)
	assert.False(t, tables[analysisRunsTable])

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 2))
	tables = sqliteTables(t, dbPath)
	assert.True(t, tables[fileConflictsTable])
}

func TestMigrateAnalysis_StoreCompatible(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "compat.db")
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))

	// The store must open cleanly on a migrated database
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalRuns)
}

func TestMigrateAnalysis_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrationDirsEmbedded(t *testing.T) {
	for backend, dir := range migrationDirs {
		entries, err := migrationsFS.ReadDir(dir)
		require.NoError(t, err, backend)
		assert.Len(t, entries, 6, "each backend ships three up/down pairs")
	}
}
