// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// PostRepository is the storage PostService needs. *store.PostStore
// satisfies it.
type PostRepository interface {
	List(ctx context.Context, f store.PostFilter) ([]models.Post, error)
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	PostIDsInCategory(ctx context.Context, categoryID int64) ([]int64, error)
	CategoriesFor(ctx context.Context, postIDs []int64) (map[int64][]models.CategoryRef, error)
	Create(ctx context.Context, p *models.Post, categoryIDs []int64) (*models.Post, error)
	Update(ctx context.Context, p *models.Post, categoryIDs []int64, replaceCategories bool) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryLookup resolves which category ids exist.
// *store.CategoryStore satisfies it.
type CategoryLookup interface {
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// ListPostsInput filters PostService.List. Nil fields do not filter.
type ListPostsInput struct {
	Published  *bool  `json:"published"`
	CategoryID *int64 `json:"categoryId"`
}

// CreatePostInput is the input of PostService.Create.
type CreatePostInput struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Excerpt     *string `json:"excerpt"`
	Published   bool    `json:"published"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// UpdatePostInput is the input of PostService.Update. Only fields that are
// Set are applied. A Set CategoryIDs, even empty, replaces the post's
// categories; an unset one leaves them untouched.
type UpdatePostInput struct {
	ID          int64                    `json:"id"`
	Title       models.Optional[string]  `json:"title"`
	Content     models.Optional[string]  `json:"content"`
	Excerpt     models.Optional[string]  `json:"excerpt"`
	Published   models.Optional[bool]    `json:"published"`
	CategoryIDs models.Optional[[]int64] `json:"categoryIds"`
}

const msgPostExists = "A post with this title already exists"

// PostService manages posts and their category associations.
type PostService struct {
	posts      PostRepository
	categories CategoryLookup
	now        func() time.Time
}

// NewPostService creates a PostService.
func NewPostService(posts PostRepository, categories CategoryLookup) *PostService {
	return &PostService{posts: posts, categories: categories, now: time.Now}
}

// List returns posts newest first, each with its categories (without
// descriptions).
func (s *PostService) List(ctx context.Context, in ListPostsInput) ([]models.Post, error) {
	var f store.PostFilter
	if in.CategoryID != nil {
		ids, err := s.posts.PostIDsInCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, internal("Failed to fetch posts", err)
		}
		if len(ids) == 0 {
			return []models.Post{}, nil
		}
		f.IDs = ids
	}
	f.Published = in.Published

	items, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, internal("Failed to fetch posts", err)
	}
	if err := s.attachCategories(ctx, items, false); err != nil {
		return nil, internal("Failed to fetch posts", err)
	}
	return items, nil
}

// GetByID returns a post with its categories.
func (s *PostService) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, internal("Failed to fetch post", err)
	}
	return s.withCategories(ctx, p, "Failed to fetch post")
}

// GetBySlug returns a post with its categories. Drafts are returned too;
// visibility is the caller's decision.
func (s *PostService) GetBySlug(ctx context.Context, slugValue string) (*models.Post, error) {
	p, err := s.posts.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, internal("Failed to fetch post", err)
	}
	return s.withCategories(ctx, p, "Failed to fetch post")
}

// Create adds a post. The slug is derived from the title and the excerpt
// defaults to the start of the content.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	problem := firstProblem(validateTitle(in.Title), validateContent(in.Content))
	if problem == "" && in.Excerpt != nil {
		problem = validateExcerpt(*in.Excerpt)
	}
	if problem != "" {
		return nil, validationFailed("%s", problem)
	}

	sl := slug.Generate(in.Title)
	if sl == "" {
		return nil, validationFailed("Title must contain at least one letter or digit")
	}

	categoryIDs := uniqueIDs(in.CategoryIDs)
	if err := s.checkCategories(ctx, categoryIDs); err != nil {
		return nil, err
	}

	taken, err := s.posts.SlugTaken(ctx, sl, 0)
	if err != nil {
		return nil, internal("Failed to create post", err)
	}
	if taken {
		return nil, conflict(msgPostExists)
	}

	excerpt := in.Excerpt
	if excerpt == nil || *excerpt == "" {
		e := defaultExcerpt(in.Content)
		excerpt = &e
	}

	now := s.now().UTC()
	created, err := s.posts.Create(ctx, &models.Post{
		Title:     in.Title,
		Slug:      sl,
		Content:   in.Content,
		Excerpt:   excerpt,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}, categoryIDs)
	if err != nil {
		return nil, s.writeError("Failed to create post", err)
	}

	slog.Info("post created", "id", created.ID, "slug", created.Slug, "status", created.Status())
	return s.withCategories(ctx, created, "Failed to create post")
}

// Update applies the provided fields to a post and always refreshes
// UpdatedAt.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if problem := validateUpdate(in); problem != "" {
		return nil, validationFailed("%s", problem)
	}

	p, err := s.posts.FindByID(ctx, in.ID)
	if err != nil {
		return nil, internal("Failed to update post", err)
	}
	if p == nil {
		return nil, notFound("Post not found")
	}

	var categoryIDs []int64
	if in.CategoryIDs.Set {
		categoryIDs = uniqueIDs(in.CategoryIDs.Value)
		if categoryIDs == nil {
			categoryIDs = []int64{}
		}
		if err := s.checkCategories(ctx, categoryIDs); err != nil {
			return nil, err
		}
	}

	if in.Title.Set && in.Title.Value != p.Title {
		sl := slug.Generate(in.Title.Value)
		if sl == "" {
			return nil, validationFailed("Title must contain at least one letter or digit")
		}
		taken, err := s.posts.SlugTaken(ctx, sl, p.ID)
		if err != nil {
			return nil, internal("Failed to update post", err)
		}
		if taken {
			return nil, conflict(msgPostExists)
		}
		p.Title = in.Title.Value
		p.Slug = sl
	}
	if in.Content.Set {
		p.Content = in.Content.Value
	}
	if in.Excerpt.Set {
		if in.Excerpt.Null {
			p.Excerpt = nil
		} else {
			e := in.Excerpt.Value
			p.Excerpt = &e
		}
	}
	if in.Published.Set {
		p.Published = in.Published.Value
	}
	p.UpdatedAt = s.now().UTC()

	updated, err := s.posts.Update(ctx, p, categoryIDs, in.CategoryIDs.Set)
	if err != nil {
		return nil, s.writeError("Failed to update post", err)
	}

	slog.Info("post updated", "id", updated.ID, "slug", updated.Slug, "status", updated.Status())
	return s.withCategories(ctx, updated, "Failed to update post")
}

// Delete removes a post together with its category associations.
func (s *PostService) Delete(ctx context.Context, id int64) (*models.DeleteResult, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, internal("Failed to delete post", err)
	}
	if p == nil {
		return nil, notFound("Post not found")
	}

	err = s.posts.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, internal("Failed to delete post", err)
	}

	slog.Info("post deleted", "id", id)
	return &models.DeleteResult{Success: true, ID: id}, nil
}

func validateUpdate(in UpdatePostInput) string {
	switch {
	case in.Title.Null:
		return "Title cannot be null"
	case in.Content.Null:
		return "Content cannot be null"
	case in.Published.Null:
		return "Published cannot be null"
	case in.CategoryIDs.Null:
		return "Category ids cannot be null"
	}
	var msgs []string
	if in.Title.Set {
		msgs = append(msgs, validateTitle(in.Title.Value))
	}
	if in.Content.Set {
		msgs = append(msgs, validateContent(in.Content.Value))
	}
	if in.Excerpt.Set {
		msgs = append(msgs, validateExcerpt(in.Excerpt.Value))
	}
	return firstProblem(msgs...)
}

// checkCategories fails with ValidationFailed when any id is not a
// category.
func (s *PostService) checkCategories(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.categories.ExistingIDs(ctx, ids)
	if err != nil {
		return internal("Failed to check categories", err)
	}
	if len(found) == len(ids) {
		return nil
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(found, id) {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	return validationFailed("Unknown category ids: %s", strings.Join(missing, ", "))
}

// writeError maps a failed post write to a service error.
func (s *PostService) writeError(msg string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound("Post not found")
	case errors.Is(err, store.ErrDuplicate):
		return conflict(msgPostExists)
	case errors.Is(err, store.ErrForeignKey):
		return validationFailed("One or more categories do not exist")
	}
	return internal(msg, err)
}

// withCategories attaches full category refs to a single post, turning a
// nil post into NotFound.
func (s *PostService) withCategories(ctx context.Context, p *models.Post, failMsg string) (*models.Post, error) {
	if p == nil {
		return nil, notFound("Post not found")
	}
	items := []models.Post{*p}
	if err := s.attachCategories(ctx, items, true); err != nil {
		return nil, internal(failMsg, err)
	}
	return &items[0], nil
}

// attachCategories fills Categories on every post in place. Descriptions
// are dropped unless withDescription is set.
func (s *PostService) attachCategories(ctx context.Context, items []models.Post, withDescription bool) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	byPost, err := s.posts.CategoriesFor(ctx, ids)
	if err != nil {
		return fmt.Errorf("load post categories: %w", err)
	}

	for i := range items {
		refs := byPost[items[i].ID]
		if refs == nil {
			refs = []models.CategoryRef{}
		}
		if !withDescription {
			for j := range refs {
				refs[j].Description = nil
			}
		}
		items[i].Categories = refs
	}
	return nil
}
