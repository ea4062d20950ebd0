package model

import "github.com/shopspring/decimal"

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog.
type Product struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	Name       string          `json:"name" gorm:"not null;index"`
	Price      Price           `json:"price" gorm:"not null"`
	CategoryID uint            `json:"categoryId" gorm:"not null;index"`
	Category   *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// ProductRequest is the payload accepted when creating a product.
// Any id sent by the client is ignored.
type ProductRequest struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uint            `json:"categoryId"`
}

// ProductDto is the product/category join projection. CategoryName is empty
// when the product points at a category that does not exist.
type ProductDto struct {
	ProductID    uint   `json:"productId"`
	ProductName  string `json:"productName"`
	CategoryName string `json:"categoryName"`
}

// BulkUpdateResult reports how many rows a price update touched.
type BulkUpdateResult struct {
	Updated int `json:"updated"`
}
