package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-api/internal/cache"
	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/handler"
	"catalog-api/internal/repository"
	"catalog-api/internal/router"
	"catalog-api/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestAPIKey is the key every test server is configured with.
const TestAPIKey = "test-api-key"

// TestApp is a fully wired API on top of a real store.
type TestApp struct {
	Store   *database.Store
	Handler http.Handler
}

// NewTestApp seeds the store and wires repositories, services, handlers and
// the router the same way the serve command does.
func NewTestApp(t *testing.T, store *database.Store, productCache cache.ProductCache) *TestApp {
	t.Helper()

	logger := zerolog.Nop()

	_, err := store.Seed(context.Background())
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(store.DB, logger)
	categoryRepo := repository.NewCategoryRepository(store.DB, logger)

	productService := service.NewProductService(productRepo, categoryRepo, productCache, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)

	productHandler := handler.NewProductHandler(productService, logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, logger)
	healthHandler := handler.NewHealthHandler(store, logger)

	return &TestApp{
		Store:   store,
		Handler: router.New(productHandler, categoryHandler, healthHandler, TestAPIKey, logger),
	}
}

// Do sends an authenticated request to the app.
func (a *TestApp) Do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", TestAPIKey)
	w := httptest.NewRecorder()

	a.Handler.ServeHTTP(w, req)
	return w
}

// SetupRedisCache starts a Redis container and returns a product cache on it.
func SetupRedisCache(t *testing.T) cache.ProductCache {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := cache.NewRedisClient(config.CacheConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisCache(client, time.Minute, zerolog.Nop())
}
