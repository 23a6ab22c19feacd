package security

import (
	"strings"
	"sync"
	"testing"
	"time"

	"blog-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for token tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGenerator(t *testing.T, expiry time.Duration) (*TokenGenerator, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)}
	g, err := NewTokenGenerator("s3cr3t", expiry, WithClock(clock.Now))
	require.NoError(t, err)
	return g, clock
}

func inactiveUser() *domain.User {
	return &domain.User{
		ID:             1,
		HashedPassword: "h1",
		Email:          "a@b.com",
		IsActive:       false,
	}
}

func TestNewTokenGenerator_EmptySecret(t *testing.T) {
	g, err := NewTokenGenerator("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
	assert.Nil(t, g)
}

func TestTokenGenerator_MakeToken_KnownVector(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)

	assert.Equal(t, "c05n6t-28b401ba3e57bb411d604fe07e49f79e", g.MakeToken(inactiveUser()))

	lastLogin := time.Date(2023, time.May, 6, 7, 8, 9, 123456000, time.UTC)
	user := &domain.User{
		ID:             7,
		HashedPassword: "hash",
		Email:          "x@y.org",
		IsActive:       true,
		LastLogin:      &lastLogin,
	}
	assert.Equal(t, "c05n6t-dfd2123e77a45770568a645b52626922", g.MakeToken(user))
}

func TestTokenGenerator_MakeToken_Format(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)

	token := g.MakeToken(inactiveUser())
	ts, sig, ok := strings.Cut(token, "-")
	require.True(t, ok)

	decoded, err := Base36Decode(ts)
	require.NoError(t, err)
	assert.Equal(t, int64(725857445), decoded)
	assert.Len(t, sig, 32)
	assert.Equal(t, sig, TokenSignature(token))
}

func TestTokenGenerator_CheckToken_Fresh(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)
	user := inactiveUser()

	assert.True(t, g.CheckToken(user, g.MakeToken(user)))
}

func TestTokenGenerator_CheckToken_Expiry(t *testing.T) {
	t.Run("within_window", func(t *testing.T) {
		g, clock := newTestGenerator(t, 10*time.Second)
		user := inactiveUser()
		token := g.MakeToken(user)

		clock.Advance(10 * time.Second)
		assert.True(t, g.CheckToken(user, token))

		clock.Advance(time.Second)
		assert.False(t, g.CheckToken(user, token))
	})

	t.Run("zero_expiry", func(t *testing.T) {
		g, clock := newTestGenerator(t, 0)
		user := inactiveUser()
		token := g.MakeToken(user)

		assert.True(t, g.CheckToken(user, token))
		clock.Advance(time.Second)
		assert.False(t, g.CheckToken(user, token))
	})

	t.Run("negative_expiry", func(t *testing.T) {
		g, _ := newTestGenerator(t, -time.Second)
		user := inactiveUser()

		assert.False(t, g.CheckToken(user, g.MakeToken(user)))
	})
}

func TestTokenGenerator_CheckToken_FingerprintChanges(t *testing.T) {
	g, clock := newTestGenerator(t, time.Hour)

	tests := []struct {
		name   string
		mutate func(u *domain.User)
	}{
		{"password_changed", func(u *domain.User) { u.HashedPassword = "h2" }},
		{"activated", func(u *domain.User) { u.IsActive = true }},
		{"email_changed", func(u *domain.User) { u.Email = "c@d.com" }},
		{"logged_in", func(u *domain.User) {
			at := clock.Now()
			u.LastLogin = &at
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := inactiveUser()
			token := g.MakeToken(user)
			require.True(t, g.CheckToken(user, token))

			updated := *user
			tt.mutate(&updated)
			assert.False(t, g.CheckToken(&updated, token))
		})
	}
}

func TestTokenGenerator_CheckToken_LastLoginPrecision(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)

	at := time.Date(2023, time.May, 6, 7, 8, 9, 0, time.UTC)
	user := inactiveUser()
	user.LastLogin = &at
	token := g.MakeToken(user)

	// the database may hand back sub-second precision the token never saw
	withMicros := at.Add(654321 * time.Microsecond)
	reloaded := *user
	reloaded.LastLogin = &withMicros
	assert.True(t, g.CheckToken(&reloaded, token))
}

func TestTokenGenerator_CheckToken_CrossUser(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)

	userA := inactiveUser()
	userB := inactiveUser()
	userB.ID = 2

	assert.False(t, g.CheckToken(userB, g.MakeToken(userA)))
}

func TestTokenGenerator_CheckToken_DifferentSecret(t *testing.T) {
	g, clock := newTestGenerator(t, time.Hour)
	other, err := NewTokenGenerator("other", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	user := inactiveUser()
	assert.False(t, other.CheckToken(user, g.MakeToken(user)))
}

func TestTokenGenerator_CheckToken_Malformed(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)
	user := inactiveUser()
	valid := g.MakeToken(user)
	_, sig, _ := strings.Cut(valid, "-")

	tests := []struct {
		name  string
		user  *domain.User
		token string
	}{
		{"nil_user", nil, valid},
		{"empty_token", user, ""},
		{"no_hyphen", user, strings.Replace(valid, "-", "", 1)},
		{"two_hyphens", user, valid + "-extra"},
		{"bad_timestamp", user, "c0_n6t-" + sig},
		{"timestamp_too_long", user, strings.Repeat("z", 14) + "-" + sig},
		{"timestamp_overflow", user, strings.Repeat("z", 13) + "-" + sig},
		{"upper_case_timestamp", user, strings.ToUpper(valid[:6]) + valid[6:]},
		{"truncated_signature", user, valid[:len(valid)-1]},
		{"tampered_timestamp", user, "c05n6u-" + sig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, g.CheckToken(tt.user, tt.token))
			})
		})
	}
}

// An activation link stops verifying once the account is active, since the
// active flag is part of the signed state.
func TestTokenGenerator_ActivationScenario(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)

	user := &domain.User{ID: 1, HashedPassword: "h1", Email: "a@b.com"}
	token := g.MakeToken(user)
	require.True(t, g.CheckToken(user, token))

	user.IsActive = true
	assert.False(t, g.CheckToken(user, token))
}

func TestTokenGenerator_ConcurrentUse(t *testing.T) {
	g, _ := newTestGenerator(t, time.Hour)

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			user := inactiveUser()
			user.ID = id
			assert.True(t, g.CheckToken(user, g.MakeToken(user)))
		}(i)
	}
	wg.Wait()
}

func TestTokenSignature(t *testing.T) {
	assert.Equal(t, "abc", TokenSignature("1-abc"))
	assert.Empty(t, TokenSignature("abc"))
	assert.Empty(t, TokenSignature("-abc"))
	assert.Empty(t, TokenSignature("1-a-b"))
}
