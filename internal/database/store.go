package database

import (
	"context"
	"fmt"

	"catalog-api/internal/config"
	"catalog-api/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store is the persistence context for the process. It is opened once at
// start and handed to every repository; nothing reaches it globally.
type Store struct {
	DB     *gorm.DB
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Open connects to the configured driver and returns a ready Store. The
// schema is not migrated; call Migrate for that.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "store").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case config.DriverSQLite:
		return openSQLite(cfg.SQLiteDSN, logger)
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return openPostgres(pool, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// OpenPostgresURL opens a Store on a postgres connection string. Used by
// tooling and tests that receive a DSN rather than discrete settings.
func OpenPostgresURL(ctx context.Context, connString string, logger zerolog.Logger) (*Store, error) {
	cfg := config.Default().Database
	pool, err := newPool(ctx, connString, cfg, logger)
	if err != nil {
		return nil, err
	}
	return openPostgres(pool, logger)
}

func openSQLite(dsn string, logger zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}

	// An in-memory database lives only as long as a connection to it, and
	// SQLite serialises writers anyway: keep exactly one connection forever.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	logger.Info().Str("dsn", dsn).Msg("sqlite store opened")

	return &Store{DB: db, logger: logger}, nil
}

func openPostgres(pool *pgxpool.Pool, logger zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), gormConfig(logger))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	logger.Info().Msg("postgres store opened")

	return &Store{DB: db, pool: pool, logger: logger}, nil
}

func gormConfig(logger zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:                 NewGormLogger(logger),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// Migrate creates or updates the categories and products tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(&model.Category{}, &model.Product{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.logger.Debug().Msg("schema migrated")
	return nil
}

// Ping verifies the underlying connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close releases the connection and, for postgres, the pool behind it.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	closeErr := sqlDB.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close database: %w", closeErr)
	}
	return nil
}
