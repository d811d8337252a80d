//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestMergespotWithMySQL tests the mergespot CLI with a MySQL backend.
func TestMergespotWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "mergespot",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	// Same database, distinct DSNs: the tables never overlap
	base := fmt.Sprintf("root:secret123@tcp(%s:%s)/mergespot?parseTime=true", host, port.Port())
	env := []string{
		"MERGESPOT_CACHE_BACKEND=mysql",
		"MERGESPOT_CACHE_DB_CONNECT=" + base,
		"MERGESPOT_ANALYSIS_BACKEND=mysql",
		"MERGESPOT_ANALYSIS_DB_CONNECT=" + base + "&loc=UTC",
	}
	runBackendScenario(t, env)
}

// TestMergespotWithPostgres tests the mergespot CLI with a PostgreSQL backend.
func TestMergespotWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	base := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	env := []string{
		"MERGESPOT_CACHE_BACKEND=postgresql",
		"MERGESPOT_CACHE_DB_CONNECT=" + base,
		"MERGESPOT_ANALYSIS_BACKEND=postgresql",
		"MERGESPOT_ANALYSIS_DB_CONNECT=" + base + " application_name=mergespot_history",
	}
	runBackendScenario(t, env)
}

// runBackendScenario clears both stores, runs an analysis twice and checks the status commands.
func runBackendScenario(t *testing.T, env []string) {
	t.Helper()
	repo := newConflictRepo(t)
	home := t.TempDir()

	_, err := runMergespot(t, home, env, "cache", "clear")
	require.NoError(t, err)

	_, err = runMergespot(t, home, env, "history", "clear")
	require.NoError(t, err)

	_, err = runMergespot(t, home, env, "history", "migrate")
	require.NoError(t, err)

	for range 2 {
		out, err := runMergespot(t, home, env, "conflicts", repo, "--ratio", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "store.go\t1\t2")
	}

	out, err := runMergespot(t, home, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected")

	out, err = runMergespot(t, home, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")
}
