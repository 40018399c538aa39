// Package testdb starts a throwaway PostgreSQL for repository tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ideas-go/internal/migrate"
	"github.com/ovaphlow/pitchfork/service-ideas-go/pkg/database"
)

const image = "postgres:16-alpine"

// Start runs a postgres container for the duration of the test and returns a
// pool connected to it. With migrated set, all migrations are applied first.
// The test is skipped under -short or when no container runtime is available.
func Start(t *testing.T, migrated bool) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("ideas"),
		postgres.WithUsername("ideas"),
		postgres.WithPassword("ideas"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(database.Config{DSN: dsn, MaxConns: 4, TimeZone: "UTC"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	if migrated {
		runner, err := migrate.NewRunner(db, zap.NewNop().Sugar(), nil)
		require.NoError(t, err)
		_, err = runner.Up(ctx)
		require.NoError(t, err)
	}
	return db
}
