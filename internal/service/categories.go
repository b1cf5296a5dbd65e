package service

import (
	"context"
	"fmt"

	"github.com/Yeseh/cortex-sub001/internal/store"
)

// CreateCategory creates category and its ancestors. With a description the
// category is also registered in its parent index, so it shows up in listings
// before it holds any memory.
func (s *Service) CreateCategory(ctx context.Context, category, description string) error {
	if category == "" {
		return &store.Error{Err: fmt.Errorf("%w: category path is empty", store.ErrInvalidArgument)}
	}

	err := s.store.EnsureCategory(ctx, category)
	if err != nil {
		return err
	}

	if description != "" {
		err = s.store.Maintainer().SetDescription(ctx, category, description)
		if err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "category created", "category", category)

	return nil
}

// DeleteCategory deletes an empty category and its parent index entry.
func (s *Service) DeleteCategory(ctx context.Context, category string) error {
	err := s.store.DeleteCategory(ctx, category)
	if err != nil {
		return err
	}

	err = s.store.Maintainer().UpdateAfterCategoryDelete(ctx, category)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "category deleted", "category", category)

	return nil
}

// DescribeCategory sets or, with "", clears the description of category.
func (s *Service) DescribeCategory(ctx context.Context, category, description string) error {
	return s.store.Maintainer().SetDescription(ctx, category, description)
}
