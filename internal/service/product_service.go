package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"catalog-api/internal/cache"
	"catalog-api/internal/model"
	"catalog-api/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// productService implements ProductService.
type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        cache.ProductCache
	logger       zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	productCache cache.ProductCache,
	logger zerolog.Logger,
) ProductService {
	if productCache == nil {
		productCache = cache.NewNopCache()
	}
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        productCache,
		logger:       logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves every product in id order.
func (s *productService) GetAll(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().Int("count", len(products)).Msg("retrieved products")
	return products, nil
}

// Create validates and stores a new product.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	exists, err := s.categoryRepo.Exists(ctx, req.CategoryID)
	if err != nil {
		s.logger.Error().Err(err).Uint("category_id", req.CategoryID).Msg("failed to check category")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if !exists {
		s.logger.Warn().Uint("category_id", req.CategoryID).Msg("unknown category")
		return nil, model.ErrCategoryNotFound
	}

	product := &model.Product{
		Name:       req.Name,
		Price:      model.NewPrice(req.Price),
		CategoryID: req.CategoryID,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("name", req.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Uint("product_id", product.ID).
		Uint("category_id", product.CategoryID).
		Msg("product created")

	return product, nil
}

// GetByID retrieves a single product by ID, reading through the cache.
func (s *productService) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	if id == 0 {
		return nil, model.ErrProductNotFound
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Uint("product_id", id).Msg("cache read failed, falling back to store")
	} else if cached != nil {
		return cached, nil
	}

	// Taken before the read so an invalidation racing with it wins.
	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warn().Err(genErr).Uint("product_id", id).Msg("cache generation unavailable, not populating")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Uint("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Uint("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	if genErr == nil {
		if _, err := s.cache.Set(ctx, product, gen); err != nil {
			s.logger.Warn().Err(err).Uint("product_id", id).Msg("failed to populate cache")
		}
	}

	return product, nil
}

// GetWithCategory retrieves every product joined to its category name.
func (s *productService) GetWithCategory(ctx context.Context) ([]model.ProductDto, error) {
	dtos, err := s.productRepo.ListWithCategory(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get products with category")
		return nil, fmt.Errorf("failed to get products with category: %w", err)
	}
	return dtos, nil
}

// BulkUpdatePrices adjusts every price by percentage in one transaction and
// evicts the updated products from the cache.
func (s *productService) BulkUpdatePrices(ctx context.Context, percentage decimal.Decimal) (*model.BulkUpdateResult, error) {
	updated, err := s.productRepo.UpdateAll(ctx, func(p *model.Product) {
		p.Price.Decimal = ApplyPercentage(p.Price.Decimal, percentage)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("percentage", percentage.String()).Msg("failed to update prices")
		return nil, fmt.Errorf("failed to update prices: %w", err)
	}

	ids := make([]uint, len(updated))
	for i := range updated {
		ids[i] = updated[i].ID
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn().Err(err).Int("count", len(ids)).Msg("failed to evict updated products")
	}

	s.logger.Info().
		Int("updated", len(updated)).
		Str("percentage", percentage.String()).
		Msg("prices updated")

	return &model.BulkUpdateResult{Updated: len(updated)}, nil
}

// GetPaged retrieves one page of products.
func (s *productService) GetPaged(ctx context.Context, page, pageSize int) ([]model.Product, error) {
	page, pageSize = NormalisePage(page, pageSize)
	if page-1 > math.MaxInt/pageSize {
		s.logger.Debug().Int("page", page).Int("page_size", pageSize).Msg("page beyond addressable range")
		return []model.Product{}, nil
	}
	offset := (page - 1) * pageSize

	products, err := s.productRepo.ListPage(ctx, offset, pageSize)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", page).
			Int("page_size", pageSize).
			Msg("failed to get product page")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("page", page).
		Int("page_size", pageSize).
		Msg("retrieved product page")

	return products, nil
}

// Search retrieves products whose name contains keyword, ignoring case.
func (s *productService) Search(ctx context.Context, keyword string) ([]model.Product, error) {
	products, err := s.productRepo.Search(ctx, keyword)
	if err != nil {
		s.logger.Error().Err(err).Str("keyword", keyword).Msg("failed to search products")
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// ApplyPercentage returns price + price*pct/100, exactly.
func ApplyPercentage(price, pct decimal.Decimal) decimal.Decimal {
	return price.Add(price.Mul(pct).Shift(-2))
}

// NormalisePage clamps page and pageSize to their valid ranges.
func NormalisePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func validateProductRequest(req *model.ProductRequest) error {
	if req == nil {
		return model.ErrInvalidProduct
	}
	if strings.TrimSpace(req.Name) == "" {
		return model.NewDomainError(model.ErrCodeInvalidProduct, "Product name is required")
	}
	if req.Price.IsNegative() {
		return model.NewDomainError(model.ErrCodeInvalidProduct, "Product price must not be negative")
	}
	return nil
}
