package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"movapp-backend/internal/database"
	"movapp-backend/internal/infrastructure/database/postgres"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pg "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormLogger "gorm.io/gorm/logger"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "movapp"
	postgresPassword = "movapp"
	postgresDatabase = "movapp_test"
)

// NewTestDB starts a disposable PostgreSQL container, applies the embedded
// migrations and returns a connected handle. Cleanup is registered on t.
func NewTestDB(t *testing.T) *postgres.DB {
	t.Helper()

	ctx := context.Background()
	container, err := pg.Run(
		ctx,
		postgresImage,
		pg.WithDatabase(postgresDatabase),
		pg.WithUsername(postgresUser),
		pg.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	db, err := postgres.Open(connStr, gormLogger.Silent)
	require.NoError(t, err, "failed to open database")
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.SQL()
	require.NoError(t, err)
	require.NoError(t, database.Migrate(sqlDB, database.Up), "failed to run migrations")

	return db
}

// Truncate empties tables between subtests sharing a container.
func Truncate(t *testing.T, db *postgres.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		require.NoError(t, db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error,
			"failed to truncate table %s", table)
	}
}
