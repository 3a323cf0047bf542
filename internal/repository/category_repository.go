package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness-tracker/internal/model"
)

// CategoryRepository is the goal category store.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// Seed inserts the catalog, leaving rows that already exist untouched.
func (r *CategoryRepository) Seed(ctx context.Context, catalog []model.GoalCategory) error {
	if len(catalog) == 0 {
		return nil
	}
	rows := make([]model.GoalCategory, len(catalog))
	for i, cat := range catalog {
		cat.Position = i + 1
		rows[i] = cat
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.GoalCategory, error) {
	var categories []model.GoalCategory
	if err := r.db.WithContext(ctx).Order("position ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByName returns nil without an error when the category does not exist.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.GoalCategory, error) {
	if name == "" {
		return nil, nil
	}
	var category model.GoalCategory
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find category: %w", err)
	}
}

// UpdateAchieved replaces the achievement counter of one category. Unknown names are ignored.
func (r *CategoryRepository) UpdateAchieved(ctx context.Context, name string, achieved int) error {
	err := r.db.WithContext(ctx).Model(&model.GoalCategory{}).
		Where("name = ?", name).
		Update("achieved", achieved).Error
	if err != nil {
		return fmt.Errorf("update category %q: %w", name, err)
	}
	return nil
}
