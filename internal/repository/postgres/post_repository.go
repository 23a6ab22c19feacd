package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blog-api/internal/domain"

	"github.com/lib/pq"
)

const postSelect = `
		SELECT p.id, p.title, p.body, p.tags, p.category_id, COALESCE(c.name, ''),
			p.owner_id, u.username, p.rating, p.is_publish,
			(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id),
			p.created, p.updated
		FROM posts p
		JOIN users u ON u.id = p.owner_id
		LEFT JOIN post_categories c ON c.id = p.category_id`

// PostRepository implements domain.PostRepository for PostgreSQL
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and fills in its generated fields
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (title, body, tags, category_id, owner_id, rating, is_publish)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created, updated
	`
	err := r.db.QueryRowContext(ctx, query,
		post.Title,
		post.Body,
		pq.Array(post.Tags),
		post.CategoryID,
		post.OwnerID,
		post.Rating,
		post.IsPublish,
	).Scan(&post.ID, &post.Created, &post.Updated)
	if err != nil {
		return mapPostWriteError(err)
	}
	return nil
}

// GetByID retrieves a post with its category, owner and comment count
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	return post, err
}

// List returns posts matching filter, newest first
func (r *PostRepository) List(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CategoryID != 0 {
		add("p.category_id = $%d", filter.CategoryID)
	}
	if filter.Tag != "" {
		add("$%d = ANY(p.tags)", filter.Tag)
	}
	if filter.OwnerID != 0 {
		add("p.owner_id = $%d", filter.OwnerID)
	}
	if filter.PublishedOnly {
		conds = append(conds, "p.is_publish")
	}

	query := postSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY p.created DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0, filter.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Update writes the editable fields of post
func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET title = $2, body = $3, tags = $4, category_id = $5, rating = $6, is_publish = $7,
			updated = NOW()
		WHERE id = $1
		RETURNING updated
	`
	err := r.db.QueryRowContext(ctx, query,
		post.ID,
		post.Title,
		post.Body,
		pq.Array(post.Tags),
		post.CategoryID,
		post.Rating,
		post.IsPublish,
	).Scan(&post.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrPostNotFound
	}
	if err != nil {
		return mapPostWriteError(err)
	}
	return nil
}

// Delete removes a post and, through the foreign key, its comments
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrPostNotFound)
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		post       domain.Post
		tags       pq.StringArray
		categoryID sql.NullInt64
	)
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Body,
		&tags,
		&categoryID,
		&post.CategoryName,
		&post.OwnerID,
		&post.OwnerName,
		&post.Rating,
		&post.IsPublish,
		&post.CommentCount,
		&post.Created,
		&post.Updated,
	)
	if err != nil {
		return nil, err
	}

	post.Tags = []string(tags)
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if categoryID.Valid {
		post.CategoryID = &categoryID.Int64
	}
	return &post, nil
}

func mapPostWriteError(err error) error {
	if IsUniqueViolation(err, "posts_title_key") {
		return domain.ErrPostTitleExists
	}
	if isForeignKeyViolation(err, "posts_category_id_fkey") {
		return domain.ErrCategoryNotFound
	}
	return err
}
