package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type categoryRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewCategoryRepository creates a new gorm-backed category repository.
func NewCategoryRepository(db *gorm.DB, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	categories := make([]model.Category, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return categories, nil
}

// GetByID loads the category and then all of its products with one
// preload query.
func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("products.id")
		}).
		Where("id = ?", id).
		Take(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error().Err(err).Uint("category_id", id).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	if c.Products == nil {
		c.Products = []model.Product{}
	}
	return &c, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", id).
		Limit(1).
		Count(&count).Error
	if err != nil {
		r.logger.Error().Err(err).Uint("category_id", id).Msg("failed to check category")
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return count > 0, nil
}
