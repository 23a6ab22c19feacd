package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"blog-api/internal/domain"
)

// Values of the "rate" filter when listing a user's comments
const (
	RatedLiked    = "liked"
	RatedDisliked = "disliked"
)

type CommentService struct {
	comments domain.CommentRepository
	posts    domain.PostRepository
}

func NewCommentService(comments domain.CommentRepository, posts domain.PostRepository) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
	}
}

func validCommentBody(body string) (string, bool) {
	body = strings.TrimSpace(body)
	n := utf8.RuneCountInString(body)
	return body, n > 0 && n <= domain.MaxCommentLength
}

func (s *CommentService) Create(ctx context.Context, actor *domain.User, postID int64, body string) (*domain.Comment, error) {
	body, ok := validCommentBody(body)
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	if err := s.visiblePost(ctx, actor, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		Body:    body,
		PostID:  postID,
		OwnerID: actor.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	return s.comments.GetByID(ctx, id)
}

// ListForPost returns the comments of a post, oldest first. viewer may be nil.
func (s *CommentService) ListForPost(ctx context.Context, viewer *domain.User, postID int64, page Page) ([]*domain.Comment, error) {
	if err := s.visiblePost(ctx, viewer, postID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	return s.comments.ListByPost(ctx, postID, page.Offset, page.Limit)
}

// ListForUser returns comments written by the user, or with rate set to
// "liked" or "disliked", the comments the user reacted to that way.
func (s *CommentService) ListForUser(ctx context.Context, userID int64, rate string, page Page) ([]*domain.Comment, error) {
	var rated domain.Reaction
	switch rate {
	case "":
	case RatedLiked:
		rated = domain.ReactionLike
	case RatedDisliked:
		rated = domain.ReactionDislike
	default:
		return nil, domain.ErrInvalidInput
	}

	page = page.Normalize()
	return s.comments.ListByUser(ctx, userID, rated, page.Offset, page.Limit)
}

func (s *CommentService) Update(ctx context.Context, actor *domain.User, id int64, body string) (*domain.Comment, error) {
	body, ok := validCommentBody(body)
	if !ok {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.editable(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateBody(ctx, id, body); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	return s.comments.Delete(ctx, id)
}

// React toggles a like or dislike of actor on the comment. It returns the
// comment with fresh counts and whether the reaction is now set.
func (s *CommentService) React(ctx context.Context, actor *domain.User, id int64, reaction domain.Reaction) (*domain.Comment, bool, error) {
	if !reaction.Valid() {
		return nil, false, domain.ErrInvalidInput
	}

	set, err := s.comments.ToggleReaction(ctx, id, actor.ID, reaction)
	if err != nil {
		return nil, false, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return comment, set, nil
}

func (s *CommentService) editable(ctx context.Context, actor *domain.User, id int64) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(comment.OwnerID) {
		return nil, domain.ErrForbidden
	}
	return comment, nil
}

// visiblePost hides drafts from everyone but their owner and staff
func (s *CommentService) visiblePost(ctx context.Context, viewer *domain.User, postID int64) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsPublish && (viewer == nil || !viewer.CanModify(post.OwnerID)) {
		return domain.ErrPostNotFound
	}
	return nil
}
