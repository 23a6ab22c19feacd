package domain

import (
	"context"
	"errors"
	"time"
)

var ErrCommentNotFound = errors.New("comment not found")

const MaxCommentLength = 600

// Reaction is a like or dislike left on a comment
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

func (r Reaction) Valid() bool {
	return r == ReactionLike || r == ReactionDislike
}

// Opposite returns the reaction that is cleared when r is set.
func (r Reaction) Opposite() Reaction {
	if r == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Comment represents a comment on a post
type Comment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	PostID    int64     `json:"post_id"`
	OwnerID   int64     `json:"owner_id"`
	OwnerName string    `json:"owner"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id int64) (*Comment, error)
	ListByPost(ctx context.Context, postID int64, offset, limit int) ([]*Comment, error)
	// ListByUser returns comments written by userID, or with a non-empty rated,
	// the comments userID reacted to with that reaction.
	ListByUser(ctx context.Context, userID int64, rated Reaction, offset, limit int) ([]*Comment, error)
	UpdateBody(ctx context.Context, id int64, body string) error
	Delete(ctx context.Context, id int64) error
	// ToggleReaction sets reaction for the user, clearing the opposite one,
	// or removes it when already set. It reports whether the reaction is set
	// afterwards.
	ToggleReaction(ctx context.Context, commentID, userID int64, reaction Reaction) (bool, error)
}
