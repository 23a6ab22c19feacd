package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain"
)

const commentSelect = `
		SELECT c.id, c.body, c.post_id, c.owner_id, u.username,
			(SELECT COUNT(*) FROM comment_reactions r WHERE r.comment_id = c.id AND r.reaction = 'like'),
			(SELECT COUNT(*) FROM comment_reactions r WHERE r.comment_id = c.id AND r.reaction = 'dislike'),
			c.created, c.updated
		FROM comments c
		JOIN users u ON u.id = c.owner_id`

// CommentRepository implements domain.CommentRepository for PostgreSQL
type CommentRepository struct {
	db *sql.DB
	tx *TxManager
}

// NewCommentRepository creates a new PostgreSQL comment repository
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db, tx: NewTxManager(db)}
}

// Create inserts a comment
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (body, post_id, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created, updated
	`
	err := r.db.QueryRowContext(ctx, query, comment.Body, comment.PostID, comment.OwnerID).
		Scan(&comment.ID, &comment.Created, &comment.Updated)
	if isForeignKeyViolation(err, "comments_post_id_fkey") {
		return domain.ErrPostNotFound
	}
	return err
}

// GetByID retrieves a comment with its reaction counts
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	return comment, err
}

// ListByPost returns the comments of a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64, offset, limit int) ([]*domain.Comment, error) {
	return r.list(ctx,
		commentSelect+` WHERE c.post_id = $1 ORDER BY c.created, c.id LIMIT $2 OFFSET $3`,
		postID, limit, offset)
}

// ListByUser returns comments written by userID or, when rated is set, the
// comments the user left that reaction on
func (r *CommentRepository) ListByUser(ctx context.Context, userID int64, rated domain.Reaction, offset, limit int) ([]*domain.Comment, error) {
	if rated == "" {
		return r.list(ctx,
			commentSelect+` WHERE c.owner_id = $1 ORDER BY c.created DESC, c.id DESC LIMIT $2 OFFSET $3`,
			userID, limit, offset)
	}
	return r.list(ctx,
		commentSelect+`
		JOIN comment_reactions mr ON mr.comment_id = c.id AND mr.user_id = $1 AND mr.reaction = $2
		ORDER BY c.created DESC, c.id DESC LIMIT $3 OFFSET $4`,
		userID, string(rated), limit, offset)
}

// UpdateBody replaces the text of a comment
func (r *CommentRepository) UpdateBody(ctx context.Context, id int64, body string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET body = $2, updated = NOW() WHERE id = $1`, id, body)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCommentNotFound)
}

// Delete removes a comment and its reactions
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrCommentNotFound)
}

// ToggleReaction records reaction for the user. Repeating the same reaction
// removes it; the opposite reaction is replaced.
func (r *CommentRepository) ToggleReaction(ctx context.Context, commentID, userID int64, reaction domain.Reaction) (bool, error) {
	var set bool
	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT reaction FROM comment_reactions WHERE comment_id = $1 AND user_id = $2 FOR UPDATE`,
			commentID, userID,
		).Scan(&current)

		switch {
		case err == nil && domain.Reaction(current) == reaction:
			_, err = tx.ExecContext(ctx,
				`DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2`,
				commentID, userID)
			set = false
			return err
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("read reaction: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO comment_reactions (comment_id, user_id, reaction)
			VALUES ($1, $2, $3)
			ON CONFLICT (comment_id, user_id) DO UPDATE SET reaction = EXCLUDED.reaction`,
			commentID, userID, string(reaction))
		if isForeignKeyViolation(err, "comment_reactions_comment_id_fkey") {
			return domain.ErrCommentNotFound
		}
		set = err == nil
		return err
	})
	if err != nil {
		return false, err
	}
	return set, nil
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(
		&c.ID,
		&c.Body,
		&c.PostID,
		&c.OwnerID,
		&c.OwnerName,
		&c.Likes,
		&c.Dislikes,
		&c.Created,
		&c.Updated,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
