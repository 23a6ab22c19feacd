package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("user with provided username already registered")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("account is not activated")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("not enough permissions")
	ErrInvalidActionToken = errors.New("link is invalid or expired")
	ErrTokenAlreadyUsed   = errors.New("link has already been used")
	ErrInvalidImage       = errors.New("unsupported image")
)

// Role is the account role. Staff roles may moderate content of other users.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleModerator   Role = "moderator"
	RoleRegularUser Role = "regular-user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleRegularUser:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = ""
)

// SocialLinks holds optional profile links
type SocialLinks struct {
	Twitter   *string `json:"twitter,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
}

// User represents a blog account
type User struct {
	ID             int64       `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	HashedPassword string      `json:"-"`
	Role           Role        `json:"role"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Gender         Gender      `json:"gender"`
	DateOfBirth    *time.Time  `json:"date_of_birth,omitempty"`
	Image          string      `json:"-"`
	About          string      `json:"about"`
	Rating         int         `json:"rating"`
	Social         SocialLinks `json:"social"`
	IsActive       bool        `json:"is_active"`
	LastLogin      *time.Time  `json:"last_login,omitempty"`
	DateJoined     time.Time   `json:"date_joined"`
}

// IsStaff reports whether the user can act on content owned by others.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// CanModify reports whether the user owns ownerID's content or is staff.
func (u *User) CanModify(ownerID int64) bool {
	return u.ID == ownerID || u.IsStaff()
}

// UserUpdate carries a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Gender      *Gender
	DateOfBirth *time.Time
	About       *string
	Social      *SocialLinks
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	Update(ctx context.Context, user *User) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetPassword(ctx context.Context, id int64, hashedPassword string) error
	SetLastLogin(ctx context.Context, id int64, at time.Time) error
	SetImage(ctx context.Context, id int64, key string) error
	Delete(ctx context.Context, id int64) error
}
