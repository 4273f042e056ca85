// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog implements the category and post services: slug
// derivation, uniqueness, partial updates and the integrity rules of the
// post/category association.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// CategoryRepository is the storage CategoryService needs.
// *store.CategoryStore satisfies it.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
	CountPosts(ctx context.Context, id int64) (int, error)
}

// CreateCategoryInput is the input of CategoryService.Create.
type CreateCategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateCategoryInput is the input of CategoryService.Update. Only fields
// that are Set are applied; a null Description clears it.
type UpdateCategoryInput struct {
	ID          int64                   `json:"id"`
	Name        models.Optional[string] `json:"name"`
	Description models.Optional[string] `json:"description"`
}

const msgCategoryExists = "A category with this name already exists"

// CategoryService manages categories.
type CategoryService struct {
	repo CategoryRepository
	now  func() time.Time
}

// NewCategoryService creates a CategoryService backed by repo.
func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo, now: time.Now}
}

// List returns every category ordered by name, each with its post count.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, internal("Failed to fetch categories", err)
	}
	return items, nil
}

// GetByID returns a category with its post count.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal("Failed to fetch category", err)
	}
	if c == nil {
		return nil, notFound("Category not found")
	}
	return c, nil
}

// GetBySlug returns a category with its post count.
func (s *CategoryService) GetBySlug(ctx context.Context, slugValue string) (*models.Category, error) {
	c, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, internal("Failed to fetch category", err)
	}
	if c == nil {
		return nil, notFound("Category not found")
	}
	return c, nil
}

// Create adds a category whose slug is derived from its name.
func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	problem := validateName(in.Name)
	if problem == "" && in.Description != nil {
		problem = validateDescription(*in.Description)
	}
	if problem != "" {
		return nil, validationFailed("%s", problem)
	}

	sl := slug.Generate(in.Name)
	if sl == "" {
		return nil, validationFailed("Name must contain at least one letter or digit")
	}

	taken, err := s.repo.SlugTaken(ctx, sl, 0)
	if err != nil {
		return nil, internal("Failed to create category", err)
	}
	if taken {
		return nil, conflict(msgCategoryExists)
	}

	created, err := s.repo.Create(ctx, &models.Category{
		Name:        in.Name,
		Slug:        sl,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict(msgCategoryExists)
	}
	if err != nil {
		return nil, internal("Failed to create category", err)
	}

	slog.Info("category created", "id", created.ID, "slug", created.Slug)
	return created, nil
}

// Update applies the provided fields to a category. A changed name
// re-derives the slug.
func (s *CategoryService) Update(ctx context.Context, in UpdateCategoryInput) (*models.Category, error) {
	var problem string
	if in.Name.Set {
		if in.Name.Null {
			problem = "Name cannot be null"
		} else {
			problem = validateName(in.Name.Value)
		}
	}
	if problem == "" && in.Description.Set && !in.Description.Null {
		problem = validateDescription(in.Description.Value)
	}
	if problem != "" {
		return nil, validationFailed("%s", problem)
	}

	existing, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, internal("Failed to update category", err)
	}
	if existing == nil {
		return nil, notFound("Category not found")
	}

	if in.Name.Set && in.Name.Value != existing.Name {
		sl := slug.Generate(in.Name.Value)
		if sl == "" {
			return nil, validationFailed("Name must contain at least one letter or digit")
		}
		taken, err := s.repo.SlugTaken(ctx, sl, existing.ID)
		if err != nil {
			return nil, internal("Failed to update category", err)
		}
		if taken {
			return nil, conflict(msgCategoryExists)
		}
		existing.Name = in.Name.Value
		existing.Slug = sl
	}

	if in.Description.Set {
		if in.Description.Null {
			existing.Description = nil
		} else {
			d := in.Description.Value
			existing.Description = &d
		}
	}

	updated, err := s.repo.Update(ctx, existing)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, notFound("Category not found")
	case errors.Is(err, store.ErrDuplicate):
		return nil, conflict(msgCategoryExists)
	case err != nil:
		return nil, internal("Failed to update category", err)
	}
	updated.PostCount = existing.PostCount

	slog.Info("category updated", "id", updated.ID, "slug", updated.Slug)
	return updated, nil
}

// Delete removes a category that no post references.
func (s *CategoryService) Delete(ctx context.Context, id int64) (*models.DeleteResult, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal("Failed to delete category", err)
	}
	if existing == nil {
		return nil, notFound("Category not found")
	}

	count, err := s.repo.CountPosts(ctx, id)
	if err != nil {
		return nil, internal("Failed to delete category", err)
	}
	if count > 0 {
		return nil, inUse(count)
	}

	err = s.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, notFound("Category not found")
	case errors.Is(err, store.ErrForeignKey):
		// A post was attached between the count and the delete.
		count, cerr := s.repo.CountPosts(ctx, id)
		if cerr != nil || count == 0 {
			count = 1
		}
		return nil, inUse(count)
	case err != nil:
		return nil, internal("Failed to delete category", err)
	}

	slog.Info("category deleted", "id", id)
	return &models.DeleteResult{Success: true, ID: id}, nil
}

func inUse(count int) *Error {
	return preconditionFailed(count,
		fmt.Sprintf("Cannot delete category that is assigned to %d post(s)", count))
}
