package blog

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/models"
)

func boolPtr(b bool) *bool { return &b }
func idPtr(id int64) *int64 { return &id }

// seedCategories creates categories by name and returns their ids in order.
func seedCategories(t *testing.T, f *fixture, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		c, err := f.categories.Create(context.Background(), CreateCategoryInput{Name: n})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	return ids
}

func TestPostCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	content := strings.Repeat("abcde", 100) // 500 characters

	p, err := f.posts.Create(context.Background(), CreatePostInput{Title: "Hello, World!", Content: content})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", p.Slug)
	assert.False(t, p.Published)
	assert.Equal(t, models.PostStatusDraft, p.Status())
	require.NotNil(t, p.Excerpt)
	assert.Equal(t, content[:200], *p.Excerpt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.NotNil(t, p.Categories)
	assert.Empty(t, p.Categories)
}

func TestPostCreate_EmptyExcerptDefaults(t *testing.T) {
	f := newFixture(t)

	p, err := f.posts.Create(context.Background(), CreatePostInput{Title: "Short", Content: "tiny body", Excerpt: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "tiny body", *p.Excerpt)
}

func TestPostCreate_ExcerptCountsCharacters(t *testing.T) {
	f := newFixture(t)
	content := strings.Repeat("é", 300)

	p, err := f.posts.Create(context.Background(), CreatePostInput{Title: "Accents", Content: content})
	require.NoError(t, err)
	assert.Equal(t, 200, utf8.RuneCountInString(*p.Excerpt))
	assert.True(t, utf8.ValidString(*p.Excerpt))
}

func TestPostCreate_ExplicitExcerptKept(t *testing.T) {
	f := newFixture(t)

	p, err := f.posts.Create(context.Background(), CreatePostInput{
		Title: "Hand written", Content: "body", Excerpt: strPtr("summary"), Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "summary", *p.Excerpt)
	assert.Equal(t, models.PostStatusPublished, p.Status())
}

func TestPostCreate_TitleConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.Create(ctx, CreatePostInput{Title: "Same Title", Content: "x"})
	require.NoError(t, err)

	_, err = f.posts.Create(ctx, CreatePostInput{Title: "same title", Content: "y"})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "A post with this title already exists", err.Error())
}

func TestPostCreate_AttachesCategories(t *testing.T) {
	f := newFixture(t)
	ids := seedCategories(t, f, "Tech", "News")

	p, err := f.posts.Create(context.Background(), CreatePostInput{
		Title: "Tagged", Content: "x", CategoryIDs: []int64{ids[0], ids[1], ids[0]},
	})
	require.NoError(t, err)
	require.Len(t, p.Categories, 2)
	assert.Equal(t, "News", p.Categories[0].Name)
	assert.Equal(t, "Tech", p.Categories[1].Name)
	assert.Equal(t, 2, f.db.assocRows())
}

func TestPostCreate_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	ids := seedCategories(t, f, "Tech")

	_, err := f.posts.Create(context.Background(), CreatePostInput{
		Title: "Dangling", Content: "x", CategoryIDs: []int64{ids[0], 77, 78},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidationFailed, KindOf(err))
	assert.Contains(t, err.Error(), "77, 78")
	assert.Empty(t, f.db.posts)
}

func TestPostCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{"missing title", CreatePostInput{Content: "x"}},
		{"title too long", CreatePostInput{Title: strings.Repeat("t", 256), Content: "x"}},
		{"missing content", CreatePostInput{Title: "T"}},
		{"content too long", CreatePostInput{Title: "T", Content: strings.Repeat("c", 100_001)}},
		{"excerpt too long", CreatePostInput{Title: "T", Content: "x", Excerpt: strPtr(strings.Repeat("e", 1001))}},
		{"title without slug characters", CreatePostInput{Title: "???", Content: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.db.failWith = errBoom

			_, err := f.posts.Create(context.Background(), tt.input)
			assert.Equal(t, KindValidationFailed, KindOf(err))
		})
	}
}

func TestPostUpdate_RefreshesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Draft", Content: "x"})

	updated, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.Equal(t, p.Slug, updated.Slug)
}

func TestPostUpdate_TogglePublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Toggle", Content: "x"})

	pub, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, Published: models.Some(true)})
	require.NoError(t, err)
	assert.True(t, pub.Published)

	draft, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, Published: models.Some(false)})
	require.NoError(t, err)
	assert.False(t, draft.Published)
}

func TestPostUpdate_TitleChangesSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "First Title", Content: "x", Excerpt: strPtr("keep")})
	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Taken", Content: "x"})

	updated, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, Title: models.Some("Second Title")})
	require.NoError(t, err)
	assert.Equal(t, "second-title", updated.Slug)
	assert.Equal(t, "keep", *updated.Excerpt)
	assert.Equal(t, "x", updated.Content)

	_, err = f.posts.Update(ctx, UpdatePostInput{ID: p.ID, Title: models.Some("TAKEN")})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestPostUpdate_FieldsOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Post", Content: "old", Excerpt: strPtr("old excerpt")})

	updated, err := f.posts.Update(ctx, UpdatePostInput{
		ID:      p.ID,
		Content: models.Some("new"),
		Excerpt: models.Optional[string]{Set: true, Null: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)
	assert.Nil(t, updated.Excerpt)
}

func TestPostUpdate_EmptyCategoryIDsClearsAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech", "News")

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Tagged", Content: "x", CategoryIDs: ids})

	updated, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, CategoryIDs: models.Some([]int64{})})
	require.NoError(t, err)
	assert.Empty(t, updated.Categories)
	assert.Zero(t, f.db.assocRows())
}

func TestPostUpdate_OmittedCategoryIDsKeepsAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech", "News")

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Tagged", Content: "x", CategoryIDs: ids})

	updated, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, Title: models.Some("Retitled")})
	require.NoError(t, err)
	assert.Len(t, updated.Categories, 2)
	assert.Equal(t, 2, f.db.assocRows())
}

func TestPostUpdate_ReplacesCategorySet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech", "News", "Tutorial")

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Tagged", Content: "x", CategoryIDs: ids[:2]})

	updated, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, CategoryIDs: models.Some([]int64{ids[2]})})
	require.NoError(t, err)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, ids[2], updated.Categories[0].ID)
}

func TestPostUpdate_UnknownCategoryLeavesAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech")

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Tagged", Content: "x", CategoryIDs: ids})

	_, err := f.posts.Update(ctx, UpdatePostInput{ID: p.ID, CategoryIDs: models.Some([]int64{404})})
	assert.Equal(t, KindValidationFailed, KindOf(err))
	assert.Equal(t, 1, f.db.assocRows())
}

func TestPostUpdate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Post", Content: "x"})

	tests := []struct {
		name  string
		input UpdatePostInput
		want  Kind
	}{
		{"missing post", UpdatePostInput{ID: 999, Title: models.Some("X")}, KindNotFound},
		{"null title", UpdatePostInput{ID: p.ID, Title: models.Optional[string]{Set: true, Null: true}}, KindValidationFailed},
		{"null published", UpdatePostInput{ID: p.ID, Published: models.Optional[bool]{Set: true, Null: true}}, KindValidationFailed},
		{"null category ids", UpdatePostInput{ID: p.ID, CategoryIDs: models.Optional[[]int64]{Set: true, Null: true}}, KindValidationFailed},
		{"empty content", UpdatePostInput{ID: p.ID, Content: models.Some("")}, KindValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.Update(ctx, tt.input)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestPostList_NewestFirstWithCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech")
	desc := "described"
	f.db.categories[ids[0]] = func() models.Category {
		c := f.db.categories[ids[0]]
		c.Description = &desc
		return c
	}()

	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Older", Content: "x", CategoryIDs: ids})
	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Newer", Content: "x"})

	items, err := f.posts.List(ctx, ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Newer", items[0].Title)
	assert.Empty(t, items[0].Categories)
	require.Len(t, items[1].Categories, 1)
	assert.Nil(t, items[1].Categories[0].Description, "list omits category descriptions")

	got, err := f.posts.GetBySlug(ctx, "older")
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	require.NotNil(t, got.Categories[0].Description)
	assert.Equal(t, "described", *got.Categories[0].Description)
}

func TestPostList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech", "Empty")

	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Pub tech", Content: "x", Published: true, CategoryIDs: []int64{ids[0]}})
	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Draft tech", Content: "x", CategoryIDs: []int64{ids[0]}})
	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Pub plain", Content: "x", Published: true})

	published, err := f.posts.List(ctx, ListPostsInput{Published: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, published, 2)

	inTech, err := f.posts.List(ctx, ListPostsInput{CategoryID: idPtr(ids[0])})
	require.NoError(t, err)
	assert.Len(t, inTech, 2)

	both, err := f.posts.List(ctx, ListPostsInput{CategoryID: idPtr(ids[0]), Published: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Pub tech", both[0].Title)
}

func TestPostList_UnreferencedCategoryReturnsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Lonely")
	_, _ = f.posts.Create(ctx, CreatePostInput{Title: "Elsewhere", Content: "x"})

	items, err := f.posts.List(ctx, ListPostsInput{CategoryID: idPtr(ids[0])})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items, err = f.posts.List(ctx, ListPostsInput{CategoryID: idPtr(12345)})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPostGet_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.GetByID(ctx, 1)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = f.posts.GetBySlug(ctx, "nope")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPostDelete_RemovesAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := seedCategories(t, f, "Tech", "News")

	p, _ := f.posts.Create(ctx, CreatePostInput{Title: "Doomed", Content: "x", CategoryIDs: ids})

	res, err := f.posts.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, p.ID, res.ID)
	assert.Zero(t, f.db.assocRows())

	for _, id := range ids {
		items, err := f.posts.List(ctx, ListPostsInput{CategoryID: idPtr(id)})
		require.NoError(t, err)
		assert.Empty(t, items)
	}

	// The categories are deletable again.
	_, err = f.categories.Delete(ctx, ids[0])
	assert.NoError(t, err)

	_, err = f.posts.Delete(ctx, p.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPostList_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.db.failWith = errBoom

	_, err := f.posts.List(context.Background(), ListPostsInput{})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Failed to fetch posts: connection reset by peer", err.Error())
}

func TestPostWrite_UniqueViolationAfterCheckIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.Create(ctx, CreatePostInput{Title: "Hello World", Content: "x"})
	require.NoError(t, err)
	other, err := f.posts.Create(ctx, CreatePostInput{Title: "Another", Content: "y"})
	require.NoError(t, err)

	f.db.staleReads = 1
	_, err = f.posts.Create(ctx, CreatePostInput{Title: "hello world", Content: "z"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "A post with this title already exists", err.Error())
	assert.Len(t, f.db.posts, 2)

	f.db.staleReads = 1
	_, err = f.posts.Update(ctx, UpdatePostInput{ID: other.ID, Title: models.Some("Hello, World!")})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	got, err := f.posts.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "another", got.Slug)
}

func TestPostCreate_WhitespaceContentAccepted(t *testing.T) {
	f := newFixture(t)

	p, err := f.posts.Create(context.Background(), CreatePostInput{Title: "Spacer", Content: "   "})
	require.NoError(t, err)
	assert.Equal(t, "   ", p.Content)
	require.NotNil(t, p.Excerpt)
	assert.Equal(t, "   ", *p.Excerpt)
}
