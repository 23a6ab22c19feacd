package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/domain"
)

const userColumns = `id, username, email, hashed_password, role, first_name, last_name, gender,
		date_of_birth, image, about, rating, twitter, facebook, instagram, linkedin,
		is_active, last_login, date_joined`

// UserRepository implements domain.UserRepository for PostgreSQL
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and fills in its generated fields
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, hashed_password, role, first_name, last_name, gender,
			date_of_birth, about, twitter, facebook, instagram, linkedin, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, date_joined
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.HashedPassword,
		string(user.Role),
		user.FirstName,
		user.LastName,
		string(user.Gender),
		user.DateOfBirth,
		user.About,
		user.Social.Twitter,
		user.Social.Facebook,
		user.Social.Instagram,
		user.Social.LinkedIn,
		user.IsActive,
	).Scan(&user.ID, &user.DateJoined)
	if err != nil {
		return mapUserWriteError(err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// List returns users ordered by id
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update writes the editable profile fields of user
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, gender = $5, date_of_birth = $6,
			about = $7, twitter = $8, facebook = $9, instagram = $10, linkedin = $11
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		string(user.Gender),
		user.DateOfBirth,
		user.About,
		user.Social.Twitter,
		user.Social.Facebook,
		user.Social.Instagram,
		user.Social.LinkedIn,
	)
	if err != nil {
		return mapUserWriteError(err)
	}
	return expectAffected(res, domain.ErrUserNotFound)
}

// SetActive flips the activation flag
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
}

// SetPassword replaces the password hash
func (r *UserRepository) SetPassword(ctx context.Context, id int64, hashedPassword string) error {
	return r.exec(ctx, `UPDATE users SET hashed_password = $2 WHERE id = $1`, id, hashedPassword)
}

// SetLastLogin records a successful login
func (r *UserRepository) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

// SetImage stores the key of the profile image
func (r *UserRepository) SetImage(ctx context.Context, id int64, key string) error {
	return r.exec(ctx, `UPDATE users SET image = $2 WHERE id = $1`, id, key)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrUserNotFound)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user        domain.User
		role        string
		gender      string
		dateOfBirth sql.NullTime
		image       sql.NullString
		lastLogin   sql.NullTime
		twitter     sql.NullString
		facebook    sql.NullString
		instagram   sql.NullString
		linkedin    sql.NullString
	)

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&role,
		&user.FirstName,
		&user.LastName,
		&gender,
		&dateOfBirth,
		&image,
		&user.About,
		&user.Rating,
		&twitter,
		&facebook,
		&instagram,
		&linkedin,
		&user.IsActive,
		&lastLogin,
		&user.DateJoined,
	)
	if err != nil {
		return nil, err
	}

	user.Role = domain.Role(role)
	user.Gender = domain.Gender(gender)
	user.Image = image.String
	if dateOfBirth.Valid {
		user.DateOfBirth = &dateOfBirth.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	user.Social = domain.SocialLinks{
		Twitter:   nullStringPtr(twitter),
		Facebook:  nullStringPtr(facebook),
		Instagram: nullStringPtr(instagram),
		LinkedIn:  nullStringPtr(linkedin),
	}
	return &user, nil
}

func mapUserWriteError(err error) error {
	switch {
	case IsUniqueViolation(err, "users_username_key"):
		return domain.ErrUsernameExists
	case IsUniqueViolation(err, "users_email_key"):
		return domain.ErrEmailExists
	}
	return err
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
