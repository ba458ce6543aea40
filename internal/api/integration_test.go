//go:build integration

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/lookout/internal/access"
	"github.com/saturnino-fabrica-de-software/lookout/internal/annotator"
	"github.com/saturnino-fabrica-de-software/lookout/internal/audit"
	"github.com/saturnino-fabrica-de-software/lookout/internal/capture"
	"github.com/saturnino-fabrica-de-software/lookout/internal/config"
	"github.com/saturnino-fabrica-de-software/lookout/internal/database"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/lookout/internal/repository"
)

const integrationDBName = "lookout_api_test"

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       integrationDBName,
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

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/%s?sslmode=disable", host, port.Port(), integrationDBName)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.MigrateUp(ctx, dsn, integrationDBName, logger))

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestPostgresAccessFlow(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	codes := repository.NewReferenceCodeRepository(pool)
	sessions := repository.NewBrowserSessionRepository(pool)

	markers, err := access.NewMarkerService("integration-secret", time.Hour)
	require.NoError(t, err)
	controller := access.NewController(codes, sessions, markers, audit.NewSlogLogger(logger), logger, access.Config{})

	supplier := capture.NewSupplier()
	defer supplier.Stop()

	router := NewRouter(logger, &Dependencies{
		Access:    controller,
		Store:     codes,
		Supplier:  supplier,
		Annotator: annotator.New(mock.New(), annotator.NewSettings(), nil, logger, annotator.DefaultConfig()),
		Config:    &config.Config{LoginRateLimit: 100, LoginRateWindow: time.Minute},
	})
	router.Setup()
	defer func() { _ = router.Shutdown(ctx) }()

	t.Run("seeded code is redeemable once per browser", func(t *testing.T) {
		resp, err := router.App().Test(withUA(submitCode(domain.DefaultCode), "integration-browser"))
		require.NoError(t, err)
		assert.Equal(t, 303, resp.StatusCode)

		rc, err := codes.GetCode(ctx, domain.DefaultCode)
		require.NoError(t, err)
		assert.Equal(t, 1, rc.CurrentUses)

		resp, err = router.App().Test(withUA(httptest.NewRequest("GET", "/", nil), "integration-browser"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("concurrent redemptions never exceed the ceiling", func(t *testing.T) {
		require.NoError(t, codes.UpsertCode(ctx, domain.ReferenceCode{Code: "race", MaxUses: 3}))

		const attempts = 12
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			granted  int
			limitErr int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := controller.RedeemCode(ctx, "race", access.Identity{
					UserAgent: fmt.Sprintf("browser-%d", i),
					Address:   "10.0.0.1",
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					granted++
				} else if assert.ErrorIs(t, err, domain.ErrUsageLimitReached) {
					limitErr++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 3, granted)
		assert.Equal(t, attempts-3, limitErr)

		rc, err := codes.GetCode(ctx, "race")
		require.NoError(t, err)
		assert.Equal(t, 3, rc.CurrentUses)
	})

	t.Run("ready pings postgres", func(t *testing.T) {
		resp, err := router.App().Test(httptest.NewRequest("GET", "/ready", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}
