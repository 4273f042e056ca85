package blog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// memDB is an in-memory stand-in for the Postgres schema. It enforces the
// same unique slugs and association foreign keys so the services can be
// tested without a database.
type memDB struct {
	categories map[int64]models.Category
	posts      map[int64]models.Post
	assoc      map[int64]map[int64]bool // post id -> category ids
	nextCat    int64
	nextPost   int64

	// failWith, when set, is returned by every repository call.
	failWith error

	// staleReads makes the next n SlugTaken / CountPosts calls answer as
	// if another request had not committed yet: slugs look free and
	// categories look unreferenced. Writes still enforce the constraints.
	staleReads int
}

func (db *memDB) stale() bool {
	if db.staleReads > 0 {
		db.staleReads--
		return true
	}
	return false
}

func (db *memDB) categorySlugTaken(slug string, excludeID int64) bool {
	for _, c := range db.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true
		}
	}
	return false
}

func (db *memDB) postSlugTaken(slug string, excludeID int64) bool {
	for _, p := range db.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true
		}
	}
	return false
}

func newMemDB() *memDB {
	return &memDB{
		categories: map[int64]models.Category{},
		posts:      map[int64]models.Post{},
		assoc:      map[int64]map[int64]bool{},
	}
}

func (db *memDB) countPosts(categoryID int64) int {
	n := 0
	for _, cats := range db.assoc {
		if cats[categoryID] {
			n++
		}
	}
	return n
}

// assocRows returns the total number of association rows.
func (db *memDB) assocRows() int {
	n := 0
	for _, cats := range db.assoc {
		n += len(cats)
	}
	return n
}

type memCategories struct{ db *memDB }

func (m memCategories) List(ctx context.Context) ([]models.Category, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	items := []models.Category{}
	for _, c := range m.db.categories {
		c.PostCount = m.db.countPosts(c.ID)
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m memCategories) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	c, ok := m.db.categories[id]
	if !ok {
		return nil, nil
	}
	c.PostCount = m.db.countPosts(id)
	return &c, nil
}

func (m memCategories) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	for _, c := range m.db.categories {
		if c.Slug == slug {
			return m.FindByID(ctx, c.ID)
		}
	}
	return nil, nil
}

func (m memCategories) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	if m.db.failWith != nil {
		return false, m.db.failWith
	}
	if m.db.stale() {
		return false, nil
	}
	return m.db.categorySlugTaken(slug, excludeID), nil
}

func (m memCategories) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	if m.db.categorySlugTaken(c.Slug, 0) {
		return nil, fmt.Errorf("create category: %w", store.ErrDuplicate)
	}
	m.db.nextCat++
	row := *c
	row.ID = m.db.nextCat
	row.PostCount = 0
	m.db.categories[row.ID] = row
	return &row, nil
}

func (m memCategories) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	old, ok := m.db.categories[c.ID]
	if !ok {
		return nil, fmt.Errorf("update category: %w", store.ErrNotFound)
	}
	if m.db.categorySlugTaken(c.Slug, c.ID) {
		return nil, fmt.Errorf("update category: %w", store.ErrDuplicate)
	}
	old.Name, old.Slug, old.Description = c.Name, c.Slug, c.Description
	m.db.categories[c.ID] = old
	return &old, nil
}

func (m memCategories) Delete(ctx context.Context, id int64) error {
	if m.db.failWith != nil {
		return m.db.failWith
	}
	if _, ok := m.db.categories[id]; !ok {
		return fmt.Errorf("delete category: %w", store.ErrNotFound)
	}
	if m.db.countPosts(id) > 0 {
		return fmt.Errorf("delete category: %w", store.ErrForeignKey)
	}
	delete(m.db.categories, id)
	return nil
}

func (m memCategories) CountPosts(ctx context.Context, id int64) (int, error) {
	if m.db.failWith != nil {
		return 0, m.db.failWith
	}
	if m.db.stale() {
		return 0, nil
	}
	return m.db.countPosts(id), nil
}

func (m memCategories) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	found := []int64{}
	for _, id := range ids {
		if _, ok := m.db.categories[id]; ok {
			found = append(found, id)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found, nil
}

type memPosts struct{ db *memDB }

func (m memPosts) List(ctx context.Context, f store.PostFilter) ([]models.Post, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	items := []models.Post{}
	for _, p := range m.db.posts {
		if f.IDs != nil && !containsID(f.IDs, p.ID) {
			continue
		}
		if f.Published != nil && p.Published != *f.Published {
			continue
		}
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (m memPosts) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	p, ok := m.db.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memPosts) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	for _, p := range m.db.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (m memPosts) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	if m.db.failWith != nil {
		return false, m.db.failWith
	}
	if m.db.stale() {
		return false, nil
	}
	return m.db.postSlugTaken(slug, excludeID), nil
}

func (m memPosts) PostIDsInCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	ids := []int64{}
	for postID, cats := range m.db.assoc {
		if cats[categoryID] {
			ids = append(ids, postID)
		}
	}
	return ids, nil
}

func (m memPosts) CategoriesFor(ctx context.Context, postIDs []int64) (map[int64][]models.CategoryRef, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	out := map[int64][]models.CategoryRef{}
	for _, pid := range postIDs {
		for cid := range m.db.assoc[pid] {
			c := m.db.categories[cid]
			out[pid] = append(out[pid], models.CategoryRef{
				ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description,
			})
		}
		refs := out[pid]
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Name != refs[j].Name {
				return refs[i].Name < refs[j].Name
			}
			return refs[i].ID < refs[j].ID
		})
	}
	return out, nil
}

func (m memPosts) checkFK(ids []int64) error {
	for _, id := range ids {
		if _, ok := m.db.categories[id]; !ok {
			return fmt.Errorf("insert post categories: %w", store.ErrForeignKey)
		}
	}
	return nil
}

func (m memPosts) Create(ctx context.Context, p *models.Post, categoryIDs []int64) (*models.Post, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	if m.db.postSlugTaken(p.Slug, 0) {
		return nil, fmt.Errorf("create post: %w", store.ErrDuplicate)
	}
	if err := m.checkFK(categoryIDs); err != nil {
		return nil, err
	}
	m.db.nextPost++
	row := *p
	row.ID = m.db.nextPost
	row.Categories = nil
	m.db.posts[row.ID] = row
	m.db.assoc[row.ID] = map[int64]bool{}
	for _, cid := range categoryIDs {
		m.db.assoc[row.ID][cid] = true
	}
	return &row, nil
}

func (m memPosts) Update(ctx context.Context, p *models.Post, categoryIDs []int64, replace bool) (*models.Post, error) {
	if m.db.failWith != nil {
		return nil, m.db.failWith
	}
	if _, ok := m.db.posts[p.ID]; !ok {
		return nil, fmt.Errorf("update post: %w", store.ErrNotFound)
	}
	if m.db.postSlugTaken(p.Slug, p.ID) {
		return nil, fmt.Errorf("update post: %w", store.ErrDuplicate)
	}
	if replace {
		if err := m.checkFK(categoryIDs); err != nil {
			return nil, err
		}
	}
	row := *p
	row.Categories = nil
	m.db.posts[p.ID] = row
	if replace {
		m.db.assoc[p.ID] = map[int64]bool{}
		for _, cid := range categoryIDs {
			m.db.assoc[p.ID][cid] = true
		}
	}
	return &row, nil
}

func (m memPosts) Delete(ctx context.Context, id int64) error {
	if m.db.failWith != nil {
		return m.db.failWith
	}
	if _, ok := m.db.posts[id]; !ok {
		return fmt.Errorf("delete post: %w", store.ErrNotFound)
	}
	delete(m.db.assoc, id)
	delete(m.db.posts, id)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// fixture wires both services to one memDB with a controllable clock.
type fixture struct {
	db         *memDB
	categories *CategoryService
	posts      *PostService
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:    newMemDB(),
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.categories = NewCategoryService(memCategories{f.db})
	f.posts = NewPostService(memPosts{f.db}, memCategories{f.db})
	tick := func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	f.categories.now = tick
	f.posts.now = tick
	return f
}

var errBoom = errors.New("connection reset by peer")
