package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/schema"
)

// conflictTable is the name of the table holding cached merge-log scans.
const conflictTable = "conflict_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with separate cache and analysis stores.
// An empty backend leaves the corresponding store disabled.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, analysisBackend schema.DatabaseBackend, analysisConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var conflictStore contract.CacheStore
		if cacheBackend != "" {
			store, err := NewCacheStore(conflictTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize conflict caching: %w", err)
				return
			}
			conflictStore = store
		}

		var analysisStore contract.AnalysisStore
		if analysisBackend != "" {
			store, err := NewAnalysisStore(analysisBackend, analysisConnStr)
			if err != nil {
				if conflictStore != nil {
					_ = conflictStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize analysis store: %w", err)
				return
			}
			analysisStore = store
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.conflicts = conflictStore
		Manager.analysis = analysisStore
	})

	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.conflicts != nil {
			_ = Manager.conflicts.Close()
		}
		if Manager.analysis != nil {
			_ = Manager.analysis.Close()
		}
	})
}

// ClearCache clears the conflict cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, conflictTable)
}

// ClearAnalysis clears the analysis history for the specified backend.
// It behaves like ClearCache but drops both history tables on server backends.
func ClearAnalysis(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	// Per-file rows go first since they reference runs
	return clearBackend(backend, dbFilePath, connStr, fileConflictsTable, analysisRunsTable)
}

// clearBackend removes the SQLite file or drops the given tables on a server backend.
func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.NoneBackend:
		return nil

	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, _ := driverFor(backend)
		for _, table := range tables {
			if err := dropSQLTable(driverName, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// dropSQLTable connects to the SQL database and drops the table if it exists.
func dropSQLTable(driverName, connStr, quotedTable string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	if _, err := db.Exec("DROP TABLE IF EXISTS " + quotedTable); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", quotedTable, err)
	}
	return nil
}
