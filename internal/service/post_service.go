package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"blog-api/internal/domain"
	"blog-api/internal/observability"
)

// PostInput holds the writable fields of a post
type PostInput struct {
	Title      string
	Body       string
	Tags       []string
	CategoryID *int64
	Rating     int
	IsPublish  bool
}

func (in PostInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > domain.MaxPostTitleLength {
		return domain.ErrInvalidInput
	}
	if in.Rating < 0 || in.Rating > domain.MaxPostRating {
		return domain.ErrInvalidInput
	}
	for _, tag := range in.Tags {
		if tag == "" || utf8.RuneCountInString(tag) > domain.MaxTagLength {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

type PostService struct {
	posts      domain.PostRepository
	categories domain.CategoryRepository
}

func NewPostService(posts domain.PostRepository, categories domain.CategoryRepository) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
	}
}

func (s *PostService) Create(ctx context.Context, actor *domain.User, in PostInput) (*domain.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	post := &domain.Post{OwnerID: actor.ID}
	apply(post, in)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("post created",
		slog.Int64("post_id", post.ID),
		slog.Int64("owner_id", actor.ID))
	return s.posts.GetByID(ctx, post.ID)
}

// Get returns a post. Drafts are only visible to their owner and staff;
// others get ErrPostNotFound. viewer may be nil.
func (s *PostService) Get(ctx context.Context, viewer *domain.User, id int64) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublish && (viewer == nil || !viewer.CanModify(post.OwnerID)) {
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

// List returns posts matching filter. Drafts are included only when a staff
// viewer asks, or when viewers list their own posts.
func (s *PostService) List(ctx context.Context, viewer *domain.User, filter domain.PostFilter) ([]*domain.Post, error) {
	page := Page{Offset: filter.Offset, Limit: filter.Limit}.Normalize()
	filter.Offset, filter.Limit = page.Offset, page.Limit

	switch {
	case viewer == nil:
		filter.PublishedOnly = true
	case viewer.IsStaff():
	case filter.OwnerID != viewer.ID:
		filter.PublishedOnly = true
	}
	return s.posts.List(ctx, filter)
}

func (s *PostService) Update(ctx context.Context, actor *domain.User, id int64, in PostInput) (*domain.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	post, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	apply(post, in)
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("post deleted",
		slog.Int64("post_id", id),
		slog.Int64("actor_id", actor.ID))
	return nil
}

// CreateCategory adds a category. Only staff may do this.
func (s *PostService) CreateCategory(ctx context.Context, actor *domain.User, name string) (*domain.Category, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrInvalidInput
	}

	category := &domain.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *PostService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *PostService) ListCategories(ctx context.Context, page Page) ([]*domain.Category, error) {
	page = page.Normalize()
	return s.categories.List(ctx, page.Offset, page.Limit)
}

func (s *PostService) editable(ctx context.Context, actor *domain.User, id int64) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(post.OwnerID) {
		if !post.IsPublish {
			return nil, domain.ErrPostNotFound
		}
		return nil, domain.ErrForbidden
	}
	return post, nil
}

func (s *PostService) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.categories.GetByID(ctx, *id)
	return err
}

func apply(post *domain.Post, in PostInput) {
	post.Title = strings.TrimSpace(in.Title)
	post.Body = in.Body
	post.Tags = in.Tags
	if post.Tags == nil {
		post.Tags = []string{}
	}
	post.CategoryID = in.CategoryID
	post.Rating = in.Rating
	post.IsPublish = in.IsPublish
}
