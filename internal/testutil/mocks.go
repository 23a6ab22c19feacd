// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the blog API.
package testutil

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"blog-api/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockUserRepository implements domain.UserRepository for testing.
// Lookups return copies so callers cannot change stored state by accident.
type MockUserRepository struct {
	mu     sync.RWMutex
	nextID int64

	// Function overrides - set these to customize behavior
	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByIDFunc       func(ctx context.Context, id int64) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)
	UpdateFunc        func(ctx context.Context, user *domain.User) error
	SetActiveFunc     func(ctx context.Context, id int64, active bool) error
	SetPasswordFunc   func(ctx context.Context, id int64, hashedPassword string) error
	SetLastLoginFunc  func(ctx context.Context, id int64, at time.Time) error

	// In-memory storage for simple tests
	Users map[int64]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository with initialized maps
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[int64]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Users == nil {
		m.Users = make(map[int64]*domain.User)
	}

	for _, u := range m.Users {
		if u.Username == user.Username {
			return domain.ErrUsernameExists
		}
		if u.Email == user.Email {
			return domain.ErrEmailExists
		}
	}

	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

// Put stores user as is, bypassing uniqueness checks
func (m *MockUserRepository) Put(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Users == nil {
		m.Users = make(map[int64]*domain.User)
	}
	if user.ID > m.nextID {
		m.nextID = user.ID
	}
	stored := *user
	m.Users[user.ID] = &stored
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.Users[id]; ok {
		u := *user
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *MockUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if match(user) {
			u := *user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*domain.User, 0, len(m.Users))
	for _, user := range m.Users {
		u := *user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, offset, limit), nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for _, u := range m.Users {
		if u.ID != user.ID && u.Email == user.Email {
			return domain.ErrEmailExists
		}
	}
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Gender = user.Gender
	stored.DateOfBirth = user.DateOfBirth
	stored.About = user.About
	stored.Social = user.Social
	return nil
}

func (m *MockUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return m.mutate(id, func(u *domain.User) { u.IsActive = active })
}

func (m *MockUserRepository) SetPassword(ctx context.Context, id int64, hashedPassword string) error {
	if m.SetPasswordFunc != nil {
		return m.SetPasswordFunc(ctx, id, hashedPassword)
	}
	return m.mutate(id, func(u *domain.User) { u.HashedPassword = hashedPassword })
}

func (m *MockUserRepository) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	if m.SetLastLoginFunc != nil {
		return m.SetLastLoginFunc(ctx, id, at)
	}
	return m.mutate(id, func(u *domain.User) { u.LastLogin = &at })
}

func (m *MockUserRepository) SetImage(ctx context.Context, id int64, key string) error {
	return m.mutate(id, func(u *domain.User) { u.Image = key })
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.Users, id)
	return nil
}

func (m *MockUserRepository) mutate(id int64, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.Users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(user)
	return nil
}

// MockPostRepository implements domain.PostRepository for testing
type MockPostRepository struct {
	mu     sync.RWMutex
	nextID int64

	CreateFunc func(ctx context.Context, post *domain.Post) error
	ListFunc   func(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error)

	Posts map[int64]*domain.Post
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{Posts: make(map[int64]*domain.Post)}
}

func (m *MockPostRepository) Create(ctx context.Context, post *domain.Post) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Posts {
		if p.Title == post.Title {
			return domain.ErrPostTitleExists
		}
	}
	m.nextID++
	post.ID = m.nextID
	post.Created = time.Now().UTC()
	post.Updated = post.Created
	stored := *post
	m.Posts[post.ID] = &stored
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.Posts[id]; ok {
		post := *p
		return &post, nil
	}
	return nil, domain.ErrPostNotFound
}

func (m *MockPostRepository) List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := []*domain.Post{}
	for _, p := range m.Posts {
		if filter.CategoryID != 0 && (p.CategoryID == nil || *p.CategoryID != filter.CategoryID) {
			continue
		}
		if filter.OwnerID != 0 && p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.PublishedOnly && !p.IsPublish {
			continue
		}
		if filter.Tag != "" && !contains(p.Tags, filter.Tag) {
			continue
		}
		post := *p
		posts = append(posts, &post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return page(posts, filter.Offset, filter.Limit), nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Posts[post.ID]; !ok {
		return domain.ErrPostNotFound
	}
	for _, p := range m.Posts {
		if p.ID != post.ID && p.Title == post.Title {
			return domain.ErrPostTitleExists
		}
	}
	post.Updated = time.Now().UTC()
	stored := *post
	m.Posts[post.ID] = &stored
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(m.Posts, id)
	return nil
}

// MockCategoryRepository implements domain.CategoryRepository for testing
type MockCategoryRepository struct {
	mu         sync.RWMutex
	Categories []*domain.Category
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.Categories {
		if c.Name == category.Name {
			return domain.ErrCategoryExists
		}
	}
	category.ID = int64(len(m.Categories) + 1)
	stored := *category
	m.Categories = append(m.Categories, &stored)
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.Categories {
		if c.ID == id {
			category := *c
			return &category, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) List(ctx context.Context, offset, limit int) ([]*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Category, 0, len(m.Categories))
	for _, c := range m.Categories {
		category := *c
		out = append(out, &category)
	}
	return page(out, offset, limit), nil
}

type reactionKey struct {
	commentID int64
	userID    int64
}

// MockCommentRepository implements domain.CommentRepository for testing
type MockCommentRepository struct {
	mu     sync.RWMutex
	nextID int64

	ToggleReactionFunc func(ctx context.Context, commentID, userID int64, reaction domain.Reaction) (bool, error)

	Comments  map[int64]*domain.Comment
	Reactions map[reactionKey]domain.Reaction
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments:  make(map[int64]*domain.Comment),
		Reactions: make(map[reactionKey]domain.Reaction),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	comment.ID = m.nextID
	comment.Created = time.Now().UTC()
	comment.Updated = comment.Created
	stored := *comment
	m.Comments[comment.ID] = &stored
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.Comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return m.withCounts(c), nil
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID int64, offset, limit int) ([]*domain.Comment, error) {
	return m.list(offset, limit, func(c *domain.Comment) bool { return c.PostID == postID })
}

func (m *MockCommentRepository) ListByUser(ctx context.Context, userID int64, rated domain.Reaction, offset, limit int) ([]*domain.Comment, error) {
	if rated == "" {
		return m.list(offset, limit, func(c *domain.Comment) bool { return c.OwnerID == userID })
	}
	return m.list(offset, limit, func(c *domain.Comment) bool {
		return m.Reactions[reactionKey{c.ID, userID}] == rated
	})
}

func (m *MockCommentRepository) list(offset, limit int, match func(*domain.Comment) bool) ([]*domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.Comment{}
	for _, c := range m.Comments {
		if match(c) {
			out = append(out, m.withCounts(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, offset, limit), nil
}

func (m *MockCommentRepository) UpdateBody(ctx context.Context, id int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.Comments[id]
	if !ok {
		return domain.ErrCommentNotFound
	}
	c.Body = body
	c.Updated = time.Now().UTC()
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(m.Comments, id)
	return nil
}

func (m *MockCommentRepository) ToggleReaction(ctx context.Context, commentID, userID int64, reaction domain.Reaction) (bool, error) {
	if m.ToggleReactionFunc != nil {
		return m.ToggleReactionFunc(ctx, commentID, userID, reaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Comments[commentID]; !ok {
		return false, domain.ErrCommentNotFound
	}
	key := reactionKey{commentID, userID}
	if m.Reactions[key] == reaction {
		delete(m.Reactions, key)
		return false, nil
	}
	m.Reactions[key] = reaction
	return true, nil
}

// withCounts must be called with the lock held
func (m *MockCommentRepository) withCounts(c *domain.Comment) *domain.Comment {
	out := *c
	out.Likes, out.Dislikes = 0, 0
	for key, r := range m.Reactions {
		if key.commentID != c.ID {
			continue
		}
		if r == domain.ReactionLike {
			out.Likes++
		} else if r == domain.ReactionLike.Opposite() {
			out.Dislikes++
		}
	}
	return &out
}

// MockEmailPublisher records published emails
type MockEmailPublisher struct {
	mu sync.Mutex

	PublishFunc func(ctx context.Context, msg domain.EmailMessage) error

	Sent []domain.EmailMessage
}

func NewMockEmailPublisher() *MockEmailPublisher {
	return &MockEmailPublisher{}
}

func (m *MockEmailPublisher) PublishEmail(ctx context.Context, msg domain.EmailMessage) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Last returns the most recently published email
func (m *MockEmailPublisher) Last() (domain.EmailMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return domain.EmailMessage{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// MockTokenStore implements domain.TokenStore in memory
type MockTokenStore struct {
	mu sync.Mutex

	MarkUsedFunc  func(ctx context.Context, purpose, signature string, ttl time.Duration) (bool, error)
	ReleaseFunc   func(ctx context.Context, purpose, signature string) error
	IsRevokedFunc func(ctx context.Context, tokenID string) (bool, error)

	Used    map[string]time.Duration
	Revoked map[string]time.Duration
}

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{
		Used:    make(map[string]time.Duration),
		Revoked: make(map[string]time.Duration),
	}
}

func (m *MockTokenStore) MarkUsed(ctx context.Context, purpose, signature string, ttl time.Duration) (bool, error) {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, purpose, signature, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := purpose + ":" + signature
	if _, ok := m.Used[key]; ok {
		return false, nil
	}
	m.Used[key] = ttl
	return true, nil
}

func (m *MockTokenStore) Release(ctx context.Context, purpose, signature string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, purpose, signature)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Used, purpose+":"+signature)
	return nil
}

func (m *MockTokenStore) IsUsed(ctx context.Context, purpose, signature string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Used[purpose+":"+signature]
	return ok, nil
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Revoked[tokenID] = ttl
	return nil
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, tokenID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Revoked[tokenID]
	return ok, nil
}

// MockImageStore keeps uploaded images in memory
type MockImageStore struct {
	mu sync.Mutex

	SaveFunc func(ctx context.Context, key, contentType string, r io.Reader) error

	Objects map[string][]byte
	Deleted []string
}

func NewMockImageStore() *MockImageStore {
	return &MockImageStore{Objects: make(map[string][]byte)}
}

func (m *MockImageStore) Save(ctx context.Context, key, contentType string, r io.Reader) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, key, contentType, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return nil
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *MockImageStore) URL(key string) string {
	return "http://images.test/" + key
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
