package database

import (
	"context"
	"fmt"

	"catalog-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// seedCategories returns the initial catalog: two categories holding three
// products between them.
func seedCategories() []model.Category {
	return []model.Category{
		{
			Name: "Electronics",
			Products: []model.Product{
				{Name: "Laptop", Price: model.NewPrice(decimal.NewFromInt(1200))},
				{Name: "Smartphone", Price: model.NewPrice(decimal.NewFromInt(800))},
			},
		},
		{
			Name: "Books",
			Products: []model.Product{
				{Name: "Novel", Price: model.NewPrice(decimal.NewFromInt(20))},
			},
		},
	}
}

// Seed populates an empty store with the initial catalog. It does nothing
// when any category already exists, so it is safe to run on every start.
// The returned bool reports whether rows were written.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	seeded := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// Two instances starting together must not both see an empty table.
			if err := tx.Exec("LOCK TABLE categories IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("failed to lock categories: %w", err)
			}
		}

		var count int64
		if err := tx.Model(&model.Category{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if count > 0 {
			return nil
		}

		categories := seedCategories()
		if err := tx.Create(&categories).Error; err != nil {
			return fmt.Errorf("failed to insert seed data: %w", err)
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		s.logger.Info().Msg("store seeded with initial catalog")
	} else {
		s.logger.Debug().Msg("store already populated, seed skipped")
	}

	return seeded, nil
}
