package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-api/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// productRepository implements the ProductRepository interface using gorm.
type productRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewProductRepository creates a new gorm-backed product repository.
func NewProductRepository(db *gorm.DB, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List retrieves all products in id order.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return products, nil
}

// Create inserts a product. A missing category surfaces as
// model.ErrCategoryNotFound.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			r.logger.Debug().Uint("category_id", product.CategoryID).Msg("category does not exist")
			return model.ErrCategoryNotFound
		}
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to insert product")
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debug().Uint("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Uint("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

// ListWithCategory joins products to categories in a single statement. A
// product whose category is missing gets an empty category name.
func (r *productRepository) ListWithCategory(ctx context.Context) ([]model.ProductDto, error) {
	dtos := make([]model.ProductDto, 0)
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("products.id AS product_id, products.name AS product_name, COALESCE(categories.name, '') AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Order("products.id").
		Find(&dtos).Error
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products with category")
		return nil, fmt.Errorf("failed to query products with category: %w", err)
	}
	return dtos, nil
}

// UpdateAll reads every product, applies mutate in memory and writes all
// rows back with a single upsert. On postgres the rows are locked for the
// duration so concurrent bulk updates cannot interleave.
func (r *productRepository) UpdateAll(ctx context.Context, mutate func(*model.Product)) ([]model.Product, error) {
	var updated []model.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Order("id")
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		products := make([]model.Product, 0)
		if err := query.Find(&products).Error; err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}

		if len(products) == 0 {
			updated = products
			return nil
		}

		for i := range products {
			mutate(&products[i])
		}

		if err := tx.Omit(clause.Associations).Save(&products).Error; err != nil {
			return fmt.Errorf("failed to save products: %w", err)
		}

		updated = products
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("bulk product update failed")
		return nil, err
	}

	r.logger.Debug().Int("count", len(updated)).Msg("bulk product update committed")
	return updated, nil
}

// ListPage retrieves one page of products in id order.
func (r *productRepository) ListPage(ctx context.Context, offset, limit int) ([]model.Product, error) {
	products := make([]model.Product, 0)
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query product page")
		return nil, fmt.Errorf("failed to query product page: %w", err)
	}
	return products, nil
}

// Search matches keyword as a literal substring of the product name. SQLite's
// LIKE already ignores ASCII case; postgres needs ILIKE.
func (r *productRepository) Search(ctx context.Context, keyword string) ([]model.Product, error) {
	op := "LIKE"
	if r.db.Dialector.Name() == "postgres" {
		op = "ILIKE"
	}
	pattern := "%" + likeEscaper.Replace(keyword) + "%"

	products := make([]model.Product, 0)
	err := r.db.WithContext(ctx).
		Where("name "+op+" ? ESCAPE '\\'", pattern).
		Order("id").
		Find(&products).Error
	if err != nil {
		r.logger.Error().Err(err).Str("keyword", keyword).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}
