package service

import (
	"context"
	"strings"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/repository"
)

type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) FindAll(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// FindPage returns one page of categories whose title contains title (all
// categories when title is empty) along with the size of that set.
func (s *CategoryService) FindPage(ctx context.Context, spec paging.Spec, title string) (paging.Page[domain.Category], error) {
	items, total, err := s.repo.ListCategoriesPage(ctx, spec, strings.TrimSpace(title))
	if err != nil {
		return paging.Page[domain.Category]{}, err
	}
	return paging.NewPage(items, spec, total), nil
}

// FindSorted is FindPage without the envelope.
func (s *CategoryService) FindSorted(ctx context.Context, spec paging.Spec) ([]domain.Category, error) {
	items, _, err := s.repo.ListCategoriesPage(ctx, spec, "")
	return items, err
}

func (s *CategoryService) FindByID(ctx context.Context, id int64) (domain.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *CategoryService) Save(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return domain.Category{}, err
	}
	return s.repo.CreateCategory(ctx, c)
}

func (s *CategoryService) SaveAll(ctx context.Context, cs []domain.Category) ([]domain.Category, error) {
	if len(cs) == 0 {
		return []domain.Category{}, nil
	}
	for i := range cs {
		cs[i].ID = 0
		if err := cs[i].Validate(); err != nil {
			return nil, apperr.Validation("category %d: %v", i, err)
		}
	}
	return s.repo.CreateCategories(ctx, cs)
}

func (s *CategoryService) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	if c.ID <= 0 {
		return domain.Category{}, apperr.Validation("categoryId is required")
	}
	return s.UpdateByID(ctx, c.ID, c)
}

func (s *CategoryService) UpdateByID(ctx context.Context, id int64, c domain.Category) (domain.Category, error) {
	c.ID = id
	if err := c.Validate(); err != nil {
		return domain.Category{}, err
	}
	return s.repo.UpdateCategory(ctx, c)
}

func (s *CategoryService) DeleteByID(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}
