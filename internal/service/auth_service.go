package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/observability"
	"blog-api/internal/security"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// RegisterInput holds the fields accepted at sign up
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Gender      domain.Gender
	DateOfBirth *time.Time
	About       string
	Social      domain.SocialLinks
}

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	Scopes      []string
	User        *domain.User
}

type AuthService struct {
	users    domain.UserRepository
	tokens   *security.TokenGenerator
	jwt      *security.JWTIssuer
	store    domain.TokenStore
	notifier *Notifier
	now      func() time.Time
}

func NewAuthService(
	users domain.UserRepository,
	tokens *security.TokenGenerator,
	jwt *security.JWTIssuer,
	store domain.TokenStore,
	notifier *Notifier,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwt:      jwt,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func validPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 128
}

// Register creates an inactive account and emails its activation link.
// A mail queue failure is logged and does not undo the registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if len(in.Username) < 3 || len(in.Username) > 150 || !usernameRegex.MatchString(in.Username) {
		return nil, domain.ErrInvalidInput
	}
	if !emailRegex.MatchString(in.Email) || len(in.Email) > 254 {
		return nil, domain.ErrInvalidInput
	}
	if !validPassword(in.Password) {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, domain.ErrUsernameExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: string(hashedPassword),
		Role:           domain.RoleRegularUser,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Gender:         in.Gender,
		DateOfBirth:    in.DateOfBirth,
		About:          in.About,
		Social:         in.Social,
		IsActive:       false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token := s.tokens.MakeToken(user)
	observability.ActionTokensIssued.WithLabelValues(domain.PurposeActivation).Inc()
	if err := s.notifier.SendActivation(ctx, user, token); err != nil {
		observability.FromContext(ctx).Warn("activation email not queued",
			slog.Int64("user_id", user.ID))
	}

	observability.FromContext(ctx).Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))
	return user, nil
}

// Activate verifies an activation link and marks the account active
func (s *AuthService) Activate(ctx context.Context, uidb64, token string) (*domain.User, error) {
	user, err := s.useLink(ctx, domain.PurposeActivation, uidb64, token, func(user *domain.User) error {
		return s.users.SetActive(ctx, user.ID, true)
	})
	if err != nil {
		return nil, err
	}
	user.IsActive = true

	observability.FromContext(ctx).Info("account activated", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login checks the credentials and issues a bearer token carrying the
// scopes the user's role allows out of the requested ones.
func (s *AuthService) Login(ctx context.Context, username, password string, scopes []string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			observability.LoginAttempts.WithLabelValues("unknown_user").Inc()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		observability.LoginAttempts.WithLabelValues("bad_password").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		observability.LoginAttempts.WithLabelValues("inactive").Inc()
		return nil, domain.ErrInactiveUser
	}

	granted := security.GrantScopes(user.Role, scopes)
	accessToken, _, err := s.jwt.Issue(user.ID, user.Username, granted)
	if err != nil {
		return nil, err
	}

	loginAt := s.now().UTC().Truncate(time.Second)
	if err := s.users.SetLastLogin(ctx, user.ID, loginAt); err != nil {
		return nil, err
	}
	user.LastLogin = &loginAt

	observability.LoginAttempts.WithLabelValues("ok").Inc()
	observability.FromContext(ctx).Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.Int("scopes", len(granted)))

	return &LoginResult{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwt.Validity().Seconds()),
		Scopes:      granted,
		User:        user,
	}, nil
}

// Logout revokes the access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *security.AccessClaims) error {
	if claims == nil || claims.ID == "" {
		return security.ErrInvalidAccessToken
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	return s.store.Revoke(ctx, claims.ID, ttl)
}

// Authenticate resolves a bearer token to its user
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*domain.User, *security.AccessClaims, error) {
	claims, err := s.jwt.Parse(bearer)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, security.ErrInvalidAccessToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, security.ErrInvalidAccessToken
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, domain.ErrInactiveUser
	}
	return user, claims, nil
}

// RequestPasswordReset emails a reset link to the account found by
// username, or by email when no username is given.
func (s *AuthService) RequestPasswordReset(ctx context.Context, username, email string) error {
	var (
		user *domain.User
		err  error
	)
	switch {
	case username != "":
		user, err = s.users.GetByUsername(ctx, username)
	case email != "":
		user, err = s.users.GetByEmail(ctx, email)
	default:
		return domain.ErrInvalidInput
	}
	if err != nil {
		return err
	}

	token := s.tokens.MakeToken(user)
	observability.ActionTokensIssued.WithLabelValues(domain.PurposePasswordReset).Inc()
	return s.notifier.SendPasswordReset(ctx, user, token)
}

// ConfirmPasswordReset verifies a reset link and stores the new password.
// Changing the hash invalidates every outstanding link of the user.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, uidb64, token, newPassword string) error {
	if !validPassword(newPassword) {
		return domain.ErrInvalidInput
	}

	user, err := s.useLink(ctx, domain.PurposePasswordReset, uidb64, token, func(user *domain.User) error {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
		if err != nil {
			return err
		}
		return s.users.SetPassword(ctx, user.ID, string(hashedPassword))
	})
	if err != nil {
		return err
	}

	observability.FromContext(ctx).Info("password reset", slog.Int64("user_id", user.ID))
	return nil
}

// CheckPasswordResetLink reports whether a reset link would be accepted,
// without consuming it.
func (s *AuthService) CheckPasswordResetLink(ctx context.Context, uidb64, token string) error {
	if _, err := s.checkLink(ctx, domain.PurposePasswordReset, uidb64, token); err != nil {
		return err
	}

	used, err := s.store.IsUsed(ctx, domain.PurposePasswordReset, security.TokenSignature(token))
	if err != nil {
		return err
	}
	if used {
		return domain.ErrTokenAlreadyUsed
	}
	return nil
}

func (s *AuthService) checkLink(ctx context.Context, purpose, uidb64, token string) (*domain.User, error) {
	username, err := DecodeUID(uidb64)
	if err != nil {
		observability.ActionTokenVerifications.WithLabelValues(purpose, "invalid").Inc()
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		observability.ActionTokenVerifications.WithLabelValues(purpose, "invalid").Inc()
		return nil, domain.ErrInvalidActionToken
	}
	if err != nil {
		return nil, err
	}

	if !s.tokens.CheckToken(user, token) {
		observability.ActionTokenVerifications.WithLabelValues(purpose, "invalid").Inc()
		return nil, domain.ErrInvalidActionToken
	}
	return user, nil
}

// useLink verifies the link, claims it and runs apply. When apply fails the
// claim is released so the same link can be retried.
func (s *AuthService) useLink(ctx context.Context, purpose, uidb64, token string, apply func(*domain.User) error) (*domain.User, error) {
	user, err := s.checkLink(ctx, purpose, uidb64, token)
	if err != nil {
		return nil, err
	}

	signature := security.TokenSignature(token)
	first, err := s.store.MarkUsed(ctx, purpose, signature, s.tokens.Expiry())
	if err != nil {
		return nil, err
	}
	if !first {
		observability.ActionTokenVerifications.WithLabelValues(purpose, "reused").Inc()
		return nil, domain.ErrTokenAlreadyUsed
	}

	if err := apply(user); err != nil {
		if relErr := s.store.Release(ctx, purpose, signature); relErr != nil {
			observability.FromContext(ctx).Error("action link not released",
				slog.String("purpose", purpose),
				slog.Int64("user_id", user.ID),
				slog.String("error", relErr.Error()))
		}
		return nil, err
	}

	observability.ActionTokenVerifications.WithLabelValues(purpose, "ok").Inc()
	return user, nil
}
