package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Price is an exact decimal amount. It marshals and scans like the
// embedded decimal.Decimal and is stored without a fixed scale.
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d as a Price.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// GormDBDataType keeps every digit: postgres gets an unscaled numeric and
// SQLite a TEXT column, since SQLite's NUMERIC affinity would coerce the
// value to a float.
func (Price) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric"
	}
	return "text"
}
