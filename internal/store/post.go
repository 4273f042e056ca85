// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"inkwell/internal/models"
)

// PostStore handles posts and their post_categories association rows.
// Every write that touches both tables runs in one transaction.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, content, excerpt, published, created_at, updated_at`

// PostFilter narrows a post listing. Each non-nil field contributes one
// predicate; predicates are combined with AND. A nil IDs means "any post",
// an empty non-nil IDs matches nothing.
type PostFilter struct {
	IDs       []int64
	Published *bool
}

// Predicates returns the filter's clauses.
func (f PostFilter) Predicates() sq.And {
	preds := sq.And{}
	if f.IDs != nil {
		preds = append(preds, sq.Eq{"id": f.IDs})
	}
	if f.Published != nil {
		preds = append(preds, sq.Eq{"published": *f.Published})
	}
	return preds
}

// scanPost scans a row selected with postColumns.
func scanPost(scanner rowScanner) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt,
		&p.Published, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns posts matching the filter, newest first.
func (s *PostStore) List(ctx context.Context, f PostFilter) ([]models.Post, error) {
	q := psql.Select(postColumns).
		From("posts").
		OrderBy("created_at DESC", "id DESC")
	if preds := f.Predicates(); len(preds) > 0 {
		q = q.Where(preds)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug regardless of its published state.
// Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// SlugTaken reports whether a post other than excludeID owns slug.
// Pass 0 to check against every post.
func (s *PostStore) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return taken, nil
}

// PostIDsInCategory returns the ids of posts associated with a category.
func (s *PostStore) PostIDsInCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id FROM post_categories WHERE category_id = $1`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category post ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CategoriesFor loads the categories of several posts in one query, keyed
// by post id and ordered by category name. Posts without categories are
// absent from the map.
func (s *PostStore) CategoriesFor(ctx context.Context, postIDs []int64) (map[int64][]models.CategoryRef, error) {
	result := make(map[int64][]models.CategoryRef, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("pc.post_id", "c.id", "c.name", "c.slug", "c.description").
		From("post_categories pc").
		Join("categories c ON c.id = pc.category_id").
		Where(sq.Eq{"pc.post_id": postIDs}).
		OrderBy("c.name", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post categories query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list post categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var c models.CategoryRef
		if err := rows.Scan(&postID, &c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("scan post category: %w", err)
		}
		result[postID] = append(result[postID], c)
	}
	return result, rows.Err()
}

// Create inserts a post and one association row per category id in a
// single transaction, returning the stored post.
func (s *PostStore) Create(ctx context.Context, p *models.Post, categoryIDs []int64) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, excerpt, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Content, p.Excerpt, p.Published, p.CreatedAt, p.UpdatedAt,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", classify(err))
	}

	if err := insertAssociations(ctx, tx, created.ID, categoryIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create post: %w", err)
	}
	return created, nil
}

// Update writes every column of an existing post. When replaceCategories
// is true the post's association set becomes exactly categoryIDs; the
// delete and insert share the post update's transaction.
func (s *PostStore) Update(ctx context.Context, p *models.Post, categoryIDs []int64, replaceCategories bool) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4,
			published = $5, updated_at = $6
		WHERE id = $7
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Content, p.Excerpt, p.Published, p.UpdatedAt, p.ID,
	)
	updated, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update post %d: %w", p.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", classify(err))
	}

	if replaceCategories {
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = $1`, p.ID); err != nil {
			return nil, fmt.Errorf("clear post categories: %w", err)
		}
		if err := insertAssociations(ctx, tx, p.ID, categoryIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update post: %w", err)
	}
	return updated, nil
}

// Delete removes a post and its association rows in one transaction.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete post categories: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete post %d: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// insertAssociations adds one post_categories row per category id.
func insertAssociations(ctx context.Context, tx *sql.Tx, postID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	ins := psql.Insert("post_categories").Columns("post_id", "category_id")
	for _, cid := range categoryIDs {
		ins = ins.Values(postID, cid)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build post categories insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert post categories: %w", classify(err))
	}
	return nil
}
