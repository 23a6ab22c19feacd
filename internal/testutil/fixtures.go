package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"blog-api/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// UserOption customizes a user fixture
type UserOption func(*domain.User)

// NewTestUser creates an active regular user with sensible defaults.
// The password of the default hash is "password123".
func NewTestUser(opts ...UserOption) *domain.User {
	n := idCounter.Add(1)
	u := &domain.User{
		ID:             n,
		Username:       fmt.Sprintf("testuser%d", n),
		HashedPassword: MustHashPassword("password123"),
		Role:           domain.RoleRegularUser,
		IsActive:       true,
		DateJoined:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.Email == "" {
		u.Email = u.Username + "@example.com"
	}
	return u
}

// MustHashPassword hashes with the minimum bcrypt cost to keep tests fast
func MustHashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func WithUserID(id int64) UserOption {
	return func(u *domain.User) { u.ID = id }
}

func WithUsername(username string) UserOption {
	return func(u *domain.User) { u.Username = username }
}

func WithEmail(email string) UserOption {
	return func(u *domain.User) { u.Email = email }
}

func WithPassword(password string) UserOption {
	return func(u *domain.User) { u.HashedPassword = MustHashPassword(password) }
}

func WithRole(role domain.Role) UserOption {
	return func(u *domain.User) { u.Role = role }
}

// WithInactive creates a user that has not followed the activation link yet
func WithInactive() UserOption {
	return func(u *domain.User) { u.IsActive = false }
}

func WithLastLogin(t time.Time) UserOption {
	return func(u *domain.User) { u.LastLogin = &t }
}

// PostOption customizes a post fixture
type PostOption func(*domain.Post)

// NewTestPost creates a published post owned by ownerID
func NewTestPost(ownerID int64, opts ...PostOption) *domain.Post {
	n := idCounter.Add(1)
	p := &domain.Post{
		Title:     fmt.Sprintf("Test Post %d", n),
		Body:      "Lorem ipsum",
		Tags:      []string{"test"},
		OwnerID:   ownerID,
		IsPublish: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func WithTitle(title string) PostOption {
	return func(p *domain.Post) { p.Title = title }
}

func WithTags(tags ...string) PostOption {
	return func(p *domain.Post) { p.Tags = tags }
}

func WithCategory(id int64) PostOption {
	return func(p *domain.Post) { p.CategoryID = &id }
}

// WithDraft creates an unpublished post
func WithDraft() PostOption {
	return func(p *domain.Post) { p.IsPublish = false }
}

// NewTestComment creates a comment on postID by ownerID
func NewTestComment(postID, ownerID int64, body string) *domain.Comment {
	if body == "" {
		body = fmt.Sprintf("comment %d", idCounter.Add(1))
	}
	return &domain.Comment{Body: body, PostID: postID, OwnerID: ownerID}
}
