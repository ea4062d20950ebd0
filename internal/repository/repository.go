package repository

import (
	"context"

	"catalog-api/internal/model"
)

// ProductRepository defines the interface for product data access operations.
// Every read is a single statement against the store; nothing filters or
// pages in application memory.
type ProductRepository interface {
	// List retrieves all products in id order.
	List(ctx context.Context) ([]model.Product, error)

	// Create inserts a product and fills in its id.
	Create(ctx context.Context, product *model.Product) error

	// GetByID retrieves a single product by its ID, or nil if absent.
	GetByID(ctx context.Context, id uint) (*model.Product, error)

	// ListWithCategory joins every product to its category name.
	ListWithCategory(ctx context.Context) ([]model.ProductDto, error)

	// UpdateAll applies mutate to every product and persists the result in
	// one batched write inside one transaction. It returns the new rows.
	UpdateAll(ctx context.Context, mutate func(*model.Product)) ([]model.Product, error)

	// ListPage retrieves at most limit products after skipping offset.
	ListPage(ctx context.Context, offset, limit int) ([]model.Product, error)

	// Search retrieves products whose name contains keyword, ignoring case.
	Search(ctx context.Context, keyword string) ([]model.Product, error)
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	// List retrieves all categories in id order.
	List(ctx context.Context) ([]model.Category, error)

	// GetByID retrieves a category with its products, or nil if absent.
	GetByID(ctx context.Context, id uint) (*model.Category, error)

	// Exists reports whether a category with the given id exists.
	Exists(ctx context.Context, id uint) (bool, error)
}
