//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/lookout/internal/database"
)

const testDBName = "lookout_test"

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       testDBName,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/%s?sslmode=disable", host, port.Port(), testDBName)
}

func TestMigratorIntegration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("MigrateUp creates tables and seeds the default code", func(t *testing.T) {
		require.NoError(t, database.MigrateUp(ctx, dsn, testDBName, logger))

		db, err := database.OpenSQL(ctx, dsn)
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assertTableExists(t, db, "reference_codes")
		assertTableExists(t, db, "browser_sessions")

		var maxUses, currentUses int
		err = db.QueryRow(`SELECT max_uses, current_uses FROM reference_codes WHERE code = '123456789'`).
			Scan(&maxUses, &currentUses)
		require.NoError(t, err)
		assert.Equal(t, 10, maxUses)
		assert.Equal(t, 0, currentUses)
	})

	t.Run("MigrateUp is idempotent", func(t *testing.T) {
		require.NoError(t, database.MigrateUp(ctx, dsn, testDBName, logger))
	})

	t.Run("Version and Down", func(t *testing.T) {
		db, err := database.OpenSQL(ctx, dsn)
		require.NoError(t, err)

		migrator, err := database.NewMigrator(db, testDBName)
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty, "migration should not be dirty")
		assert.Equal(t, uint(2), version)

		require.NoError(t, migrator.Down())
		version, _, err = migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
	})

	t.Run("check constraints reject negative counters", func(t *testing.T) {
		db, err := database.OpenSQL(ctx, dsn)
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = db.Exec(`INSERT INTO reference_codes (code, max_uses, current_uses) VALUES ('bad', -1, 0)`)
		assert.Error(t, err)
	})
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}
