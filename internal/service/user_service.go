package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"blog-api/internal/domain"
	"blog-api/internal/observability"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Profile is a user together with the public URL of its image
type Profile struct {
	*domain.User
	ImageURL string `json:"image_url,omitempty"`
}

type UserService struct {
	users         domain.UserRepository
	images        domain.ImageStore
	maxImageBytes int64
}

func NewUserService(users domain.UserRepository, images domain.ImageStore, maxImageBytes int64) *UserService {
	return &UserService{
		users:         users,
		images:        images,
		maxImageBytes: maxImageBytes,
	}
}

// Profile decorates user with its image URL
func (s *UserService) Profile(user *domain.User) *Profile {
	p := &Profile{User: user}
	if user.Image != "" {
		p.ImageURL = s.images.URL(user.Image)
	}
	return p
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page Page) ([]*domain.User, error) {
	page = page.Normalize()
	return s.users.List(ctx, page.Offset, page.Limit)
}

// UpdateMe applies the non-nil fields of upd to the user's profile
func (s *UserService) UpdateMe(ctx context.Context, user *domain.User, upd domain.UserUpdate) (*domain.User, error) {
	updated := *user

	if upd.Email != nil {
		if !emailRegex.MatchString(*upd.Email) {
			return nil, domain.ErrInvalidInput
		}
		updated.Email = *upd.Email
	}
	if upd.FirstName != nil {
		updated.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		updated.LastName = *upd.LastName
	}
	if upd.Gender != nil {
		switch *upd.Gender {
		case domain.GenderMale, domain.GenderFemale, domain.GenderUnknown:
		default:
			return nil, domain.ErrInvalidInput
		}
		updated.Gender = *upd.Gender
	}
	if upd.DateOfBirth != nil {
		updated.DateOfBirth = upd.DateOfBirth
	}
	if upd.About != nil {
		updated.About = *upd.About
	}
	if upd.Social != nil {
		updated.Social = *upd.Social
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMe removes the caller's account and its image
func (s *UserService) DeleteMe(ctx context.Context, user *domain.User) error {
	return s.remove(ctx, user)
}

// Delete removes another account. Only admins may do this.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, user)
}

func (s *UserService) remove(ctx context.Context, user *domain.User) error {
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.deleteImage(ctx, user.Image)
	observability.FromContext(ctx).Info("user deleted", slog.Int64("user_id", user.ID))
	return nil
}

// UploadImage stores r as the user's profile image and drops the previous one.
// The content type is sniffed, never trusted from the client.
func (s *UserService) UploadImage(ctx context.Context, user *domain.User, r io.Reader) (*domain.User, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 || int64(len(data)) > s.maxImageBytes {
		return nil, domain.ErrInvalidImage
	}

	contentType := mimetype.Detect(data).String()
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, domain.ErrInvalidImage
	}

	key := fmt.Sprintf("users/%d/%s%s", user.ID, uuid.NewString(), ext)
	if err := s.images.Save(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	if err := s.users.SetImage(ctx, user.ID, key); err != nil {
		s.deleteImage(ctx, key)
		return nil, err
	}

	s.deleteImage(ctx, user.Image)

	updated := *user
	updated.Image = key
	return &updated, nil
}

func (s *UserService) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		observability.FromContext(ctx).Warn("failed to delete image",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
