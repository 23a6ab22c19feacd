package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"blog-api/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "username", "email", "hashed_password", "role", "first_name", "last_name", "gender",
	"date_of_birth", "image", "about", "rating", "twitter", "facebook", "instagram", "linkedin",
	"is_active", "last_login", "date_joined",
}

func userRows(joined time.Time, lastLogin any) *sqlmock.Rows {
	return sqlmock.NewRows(userRowColumns).AddRow(
		int64(7), "alice", "alice@example.com", "$2a$12$hash", "regular-user", "Alice", "Smith", "female",
		nil, nil, "about me", 3, "https://twitter.com/alice", nil, nil, nil,
		true, lastLogin, joined,
	)
}

func TestUserRepository_Create(t *testing.T) {
	t.Run("fills_generated_fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "alice@example.com", "hash", "regular-user", "", "", "",
				nil, "", nil, nil, nil, nil, false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "date_joined"}).AddRow(int64(7), joined))

		user := &domain.User{
			Username:       "alice",
			Email:          "alice@example.com",
			HashedPassword: "hash",
			Role:           domain.RoleRegularUser,
		}
		err = NewUserRepository(db).Create(context.Background(), user)

		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, joined, user.DateJoined)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps_unique_violations", func(t *testing.T) {
		tests := []struct {
			constraint string
			want       error
		}{
			{"users_username_key", domain.ErrUsernameExists},
			{"users_email_key", domain.ErrEmailExists},
		}
		for _, tt := range tests {
			t.Run(tt.constraint, func(t *testing.T) {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer db.Close()

				mock.ExpectQuery("INSERT INTO users").
					WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

				err = NewUserRepository(db).Create(context.Background(), &domain.User{Username: "alice"})
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("scans_nullable_columns", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		joined := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
		lastLogin := joined.Add(time.Hour)
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(userRows(joined, lastLogin))

		user, err := NewUserRepository(db).GetByID(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, domain.RoleRegularUser, user.Role)
		assert.Equal(t, domain.GenderFemale, user.Gender)
		assert.Nil(t, user.DateOfBirth)
		assert.Empty(t, user.Image)
		require.NotNil(t, user.LastLogin)
		assert.Equal(t, lastLogin, *user.LastLogin)
		require.NotNil(t, user.Social.Twitter)
		assert.Equal(t, "https://twitter.com/alice", *user.Social.Twitter)
		assert.Nil(t, user.Social.Facebook)
		assert.True(t, user.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not_found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		user, err := NewUserRepository(db).GetByID(context.Background(), 99)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserRepository_GetByUsernameAndEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	joined := time.Now().UTC()
	mock.ExpectQuery("FROM users WHERE username = \\$1").
		WithArgs("alice").
		WillReturnRows(userRows(joined, nil))
	mock.ExpectQuery("FROM users WHERE email = \\$1").
		WithArgs("alice@example.com").
		WillReturnRows(userRows(joined, nil))

	repo := NewUserRepository(db)

	byName, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, byName.LastLogin)

	byEmail, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byEmail.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM users ORDER BY id LIMIT \\$1 OFFSET \\$2").
		WithArgs(10, 20).
		WillReturnRows(userRows(time.Now(), nil))

	users, err := NewUserRepository(db).List(context.Background(), 20, 10)

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Setters(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		args  []any
		call  func(*UserRepository) error
	}{
		{
			name:  "set_active",
			query: "UPDATE users SET is_active",
			args:  []any{int64(7), true},
			call: func(r *UserRepository) error {
				return r.SetActive(context.Background(), 7, true)
			},
		},
		{
			name:  "set_password",
			query: "UPDATE users SET hashed_password",
			args:  []any{int64(7), "new-hash"},
			call: func(r *UserRepository) error {
				return r.SetPassword(context.Background(), 7, "new-hash")
			},
		},
		{
			name:  "set_last_login",
			query: "UPDATE users SET last_login",
			args:  []any{int64(7), at},
			call: func(r *UserRepository) error {
				return r.SetLastLogin(context.Background(), 7, at)
			},
		},
		{
			name:  "set_image",
			query: "UPDATE users SET image",
			args:  []any{int64(7), "users/7/a.png"},
			call: func(r *UserRepository) error {
				return r.SetImage(context.Background(), 7, "users/7/a.png")
			},
		},
		{
			name:  "delete",
			query: "DELETE FROM users",
			args:  []any{int64(7)},
			call: func(r *UserRepository) error {
				return r.Delete(context.Background(), 7)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			args := make([]driver.Value, len(tt.args))
			for i, a := range tt.args {
				args[i] = a
			}
			mock.ExpectExec(tt.query).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))
			require.NoError(t, tt.call(NewUserRepository(db)))

			mock.ExpectExec(tt.query).WillReturnResult(sqlmock.NewResult(0, 0))
			assert.ErrorIs(t, tt.call(NewUserRepository(db)), domain.ErrUserNotFound)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users\\s+SET email").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectExec("UPDATE users\\s+SET email").
		WillReturnError(errors.New("connection reset"))

	repo := NewUserRepository(db)
	user := &domain.User{ID: 7, Email: "taken@example.com"}

	assert.ErrorIs(t, repo.Update(context.Background(), user), domain.ErrEmailExists)
	assert.EqualError(t, repo.Update(context.Background(), user), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
