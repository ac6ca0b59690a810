package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

type CategoryService struct {
	repo Repository
}

func NewCategoryService(repo Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns categories ordered by type, then name.
func (s *CategoryService) List(ctx context.Context, ownerID int64) ([]core.Category, error) {
	categories, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, ownerID, id int64) (core.Category, error) {
	c, err := s.repo.GetCategory(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, storageErr("get category", err)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, ownerID int64, n core.NewCategory) (core.Category, error) {
	n.Name = strings.TrimSpace(n.Name)
	if err := n.Validate(); err != nil {
		return core.Category{}, err
	}

	var created core.Category
	err := s.repo.InTx(ctx, func(tx Tx) error {
		if _, exists, err := tx.FindCategoryByName(ctx, ownerID, n.Name, n.Type); err != nil {
			return err
		} else if exists {
			return core.Conflict("category", "a category with this name and type already exists")
		}
		c, err := tx.InsertCategory(ctx, ownerID, n)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return core.Category{}, storageErr("create category", err)
	}
	return created, nil
}
