package service

import (
	"context"
	"strings"
	"testing"

	"blog-api/internal/domain"
	"blog-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostFixture(t *testing.T) (*PostService, *testutil.MockPostRepository, *testutil.MockCategoryRepository) {
	t.Helper()
	posts := testutil.NewMockPostRepository()
	categories := testutil.NewMockCategoryRepository()
	return NewPostService(posts, categories), posts, categories
}

func int64Ptr(v int64) *int64 { return &v }

func TestPostService_Create(t *testing.T) {
	svc, _, categories := newPostFixture(t)
	ctx := context.Background()
	author := testutil.NewTestUser()
	require.NoError(t, categories.Create(ctx, &domain.Category{Name: "go"}))

	post, err := svc.Create(ctx, author, PostInput{
		Title:      "  Hello  ",
		Body:       "World",
		Tags:       []string{"intro"},
		CategoryID: int64Ptr(1),
		Rating:     4,
		IsPublish:  true,
	})
	require.NoError(t, err)

	assert.NotZero(t, post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, author.ID, post.OwnerID)
	assert.Equal(t, []string{"intro"}, post.Tags)
}

func TestPostService_Create_Invalid(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	author := testutil.NewTestUser()

	tests := []struct {
		name string
		in   PostInput
		err  error
	}{
		{"empty title", PostInput{Title: "  "}, domain.ErrInvalidInput},
		{"long title", PostInput{Title: strings.Repeat("t", domain.MaxPostTitleLength+1)}, domain.ErrInvalidInput},
		{"long tag", PostInput{Title: "ok", Tags: []string{strings.Repeat("x", domain.MaxTagLength+1)}}, domain.ErrInvalidInput},
		{"rating too high", PostInput{Title: "ok", Rating: 6}, domain.ErrInvalidInput},
		{"negative rating", PostInput{Title: "ok", Rating: -1}, domain.ErrInvalidInput},
		{"unknown category", PostInput{Title: "ok", CategoryID: int64Ptr(42)}, domain.ErrCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), author, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPostService_Create_DuplicateTitle(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	author := testutil.NewTestUser()

	_, err := svc.Create(context.Background(), author, PostInput{Title: "Same"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), author, PostInput{Title: "Same"})
	assert.ErrorIs(t, err, domain.ErrPostTitleExists)
}

func TestPostService_DraftVisibility(t *testing.T) {
	svc, posts, _ := newPostFixture(t)
	ctx := context.Background()
	owner := testutil.NewTestUser()
	stranger := testutil.NewTestUser()
	moderator := testutil.NewTestUser(testutil.WithRole(domain.RoleModerator))

	draft := testutil.NewTestPost(owner.ID, testutil.WithDraft())
	require.NoError(t, posts.Create(ctx, draft))
	published := testutil.NewTestPost(owner.ID)
	require.NoError(t, posts.Create(ctx, published))

	_, err := svc.Get(ctx, owner, draft.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, moderator, draft.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, stranger, draft.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	_, err = svc.Get(ctx, nil, draft.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	list, err := svc.List(ctx, nil, domain.PostFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(ctx, owner, domain.PostFilter{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(ctx, stranger, domain.PostFilter{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostService_List_ClampsPage(t *testing.T) {
	svc, posts, _ := newPostFixture(t)
	var got domain.PostFilter
	posts.ListFunc = func(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
		got = filter
		return nil, nil
	}

	_, err := svc.List(context.Background(), nil, domain.PostFilter{Offset: -5, Limit: 1000, Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, domain.PostFilter{Offset: 0, Limit: MaxPageSize, Tag: "go", PublishedOnly: true}, got)
}

func TestPostService_UpdateDelete_Permissions(t *testing.T) {
	svc, posts, _ := newPostFixture(t)
	ctx := context.Background()
	owner := testutil.NewTestUser()
	stranger := testutil.NewTestUser()
	admin := testutil.NewTestUser(testutil.WithRole(domain.RoleAdmin))

	post := testutil.NewTestPost(owner.ID)
	require.NoError(t, posts.Create(ctx, post))

	_, err := svc.Update(ctx, stranger, post.ID, PostInput{Title: "hijacked"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.Update(ctx, owner, post.ID, PostInput{Title: "Edited", IsPublish: true})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, post.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, post.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, post.ID), domain.ErrPostNotFound)
}

func TestPostService_CreateCategory(t *testing.T) {
	svc, _, _ := newPostFixture(t)
	ctx := context.Background()
	regular := testutil.NewTestUser()
	moderator := testutil.NewTestUser(testutil.WithRole(domain.RoleModerator))

	_, err := svc.CreateCategory(ctx, regular, "news")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CreateCategory(ctx, moderator, strings.Repeat("c", domain.MaxCategoryNameLength+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	category, err := svc.CreateCategory(ctx, moderator, "news")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)

	_, err = svc.CreateCategory(ctx, moderator, "news")
	assert.ErrorIs(t, err, domain.ErrCategoryExists)

	list, err := svc.ListCategories(ctx, Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := svc.GetCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "news", got.Name)
}
