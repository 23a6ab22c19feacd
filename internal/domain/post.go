package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrPostTitleExists  = errors.New("post with this title already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

const (
	MaxPostTitleLength    = 512
	MaxTagLength          = 30
	MaxCategoryNameLength = 50
	MaxPostRating         = 5
)

// Post represents a blog post
type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Tags         []string  `json:"tags"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	CategoryName string    `json:"category,omitempty"`
	OwnerID      int64     `json:"owner_id"`
	OwnerName    string    `json:"owner"`
	Rating       int       `json:"rating"`
	IsPublish    bool      `json:"is_publish"`
	CommentCount int       `json:"comments_count"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// PostFilter narrows a post listing. Zero values mean "any".
type PostFilter struct {
	CategoryID    int64
	Tag           string
	OwnerID       int64
	PublishedOnly bool
	Offset        int
	Limit         int
}

// Category groups posts
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, filter PostFilter) ([]*Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id int64) (*Category, error)
	List(ctx context.Context, offset, limit int) ([]*Category, error)
}
