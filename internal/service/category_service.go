package service

import (
	"context"
	"strconv"
	"strings"

	"wellness-tracker/internal/model"
	"wellness-tracker/internal/repository"
)

// CategoryService provides read helpers around goal categories.
// Counters are written only by EventService.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Seed installs the default catalog.
func (s *CategoryService) Seed(ctx context.Context) error {
	return s.repo.Seed(ctx, model.DefaultCategories())
}

func (s *CategoryService) List(ctx context.Context) ([]model.GoalCategory, error) {
	return s.repo.List(ctx)
}

// Resolve accepts a category name or its 1-based position in List.
func (s *CategoryService) Resolve(ctx context.Context, ref string) (*model.GoalCategory, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(categories) {
			return &categories[n-1], nil
		}
		return nil, nil
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, ref) {
			return &categories[i], nil
		}
	}
	return nil, nil
}
