// Package testutil holds helpers shared by tests that need a real store.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SQLiteDSN returns a DSN for a private in-memory database.
func SQLiteDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// NewSQLiteStore opens a migrated, empty in-memory store that is closed
// when the test ends.
func NewSQLiteStore(t *testing.T) *database.Store {
	t.Helper()

	cfg := config.Default().Database
	cfg.SQLiteDSN = SQLiteDSN()

	store, err := database.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// NewPostgresStore starts a PostgreSQL container and returns a migrated,
// empty store on it. Skipped in -short mode.
func NewPostgresStore(t *testing.T) *database.Store {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := database.OpenPostgresURL(ctx, connStr, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

// InsertCategories writes categories in order and returns them with ids.
func InsertCategories(t *testing.T, store *database.Store, names ...string) []model.Category {
	t.Helper()

	categories := make([]model.Category, len(names))
	for i, name := range names {
		categories[i] = model.Category{Name: name}
	}
	require.NoError(t, store.DB.Create(&categories).Error)
	return categories
}

// ProductSpec describes a product fixture.
type ProductSpec struct {
	Name       string
	Price      int64
	CategoryID uint
}

// InsertProducts writes products in order and returns them with ids.
func InsertProducts(t *testing.T, store *database.Store, specs ...ProductSpec) []model.Product {
	t.Helper()

	products := make([]model.Product, len(specs))
	for i, s := range specs {
		products[i] = model.Product{
			Name:       s.Name,
			Price:      model.NewPrice(decimal.NewFromInt(s.Price)),
			CategoryID: s.CategoryID,
		}
	}
	require.NoError(t, store.DB.Create(&products).Error)
	return products
}
