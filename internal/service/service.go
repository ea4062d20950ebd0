package service

import (
	"context"

	"catalog-api/internal/model"

	"github.com/shopspring/decimal"
)

// Paging defaults applied by ProductService.GetPaged.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves every product in id order.
	GetAll(ctx context.Context) ([]model.Product, error)

	// Create validates and stores a new product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uint) (*model.Product, error)

	// GetWithCategory retrieves every product joined to its category name.
	GetWithCategory(ctx context.Context) ([]model.ProductDto, error)

	// BulkUpdatePrices adjusts every price by the given percentage.
	BulkUpdatePrices(ctx context.Context, percentage decimal.Decimal) (*model.BulkUpdateResult, error)

	// GetPaged retrieves one page of products. Out of range values are clamped.
	GetPaged(ctx context.Context, page, pageSize int) ([]model.Product, error)

	// Search retrieves products whose name contains keyword.
	Search(ctx context.Context, keyword string) ([]model.Product, error)
}

// CategoryService defines operations for category lookup.
type CategoryService interface {
	// GetAll retrieves every category in id order.
	GetAll(ctx context.Context) ([]model.Category, error)

	// GetByID retrieves a category with its products.
	GetByID(ctx context.Context, id uint) (*model.Category, error)
}
