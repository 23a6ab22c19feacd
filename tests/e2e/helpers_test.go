//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"blog-api/internal/domain"
	"blog-api/internal/security"
)

// mailbox is a messaging.Mailer that keeps every delivered email by recipient
type mailbox struct {
	mu       sync.Mutex
	messages map[string][]domain.EmailMessage
	notify   chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		messages: make(map[string][]domain.EmailMessage),
		notify:   make(chan struct{}, 1),
	}
}

func (m *mailbox) Deliver(_ context.Context, msg domain.EmailMessage) error {
	m.mu.Lock()
	m.messages[msg.To] = append(m.messages[msg.To], msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// WaitFor returns the n-th (1-based) email sent to recipient
func (m *mailbox) WaitFor(t *testing.T, recipient string, n int) domain.EmailMessage {
	t.Helper()

	deadline := time.After(15 * time.Second)
	for {
		m.mu.Lock()
		msgs := m.messages[recipient]
		m.mu.Unlock()
		if len(msgs) >= n {
			return msgs[n-1]
		}

		select {
		case <-m.notify:
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timeout waiting for email %d to %s", n, recipient)
		}
	}
}

// linkPath strips scheme and host from the link carried by msg
func linkPath(t *testing.T, msg domain.EmailMessage) string {
	t.Helper()
	u, err := url.Parse(msg.Context["link"])
	if err != nil {
		t.Fatalf("bad link %q: %v", msg.Context["link"], err)
	}
	return u.Path
}

// TestClient drives the API as a single user. The CSRF cookie is Secure, so
// it is carried by hand rather than through a cookie jar.
type TestClient struct {
	*http.Client
	t           *testing.T
	accessToken string
	csrfToken   string
	userID      int64
	username    string
}

func NewTestClient(t *testing.T) *TestClient {
	return &TestClient{
		Client: &http.Client{Timeout: 30 * time.Second},
		t:      t,
	}
}

// DoJSON sends a JSON request and decodes a JSON response into out when out is
// non-nil. It returns the status code.
func (tc *TestClient) DoJSON(method, path string, body, out any) int {
	tc.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			tc.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		tc.t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}
	if tc.csrfToken != "" {
		req.Header.Set(security.CSRFHeaderName, tc.csrfToken)
		req.AddCookie(&http.Cookie{Name: security.CSRFCookieName, Value: tc.csrfToken})
	}

	resp, err := tc.Do(req)
	if err != nil {
		tc.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			tc.t.Fatalf("failed to decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	Scope       string       `json:"scope"`
	User        UserResponse `json:"user"`
}

type PostResponse struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	OwnerID       int64    `json:"owner_id"`
	IsPublish     bool     `json:"is_publish"`
	CommentsCount int      `json:"comments_count"`
}

type CommentResponse struct {
	ID       int64 `json:"id"`
	PostID   int64 `json:"post_id"`
	Likes    int   `json:"likes"`
	Dislikes int   `json:"dislikes"`
}

// Register creates an account and returns the activation link path
func (tc *TestClient) Register(username, email, password string) string {
	tc.t.Helper()

	var user UserResponse
	status := tc.DoJSON(http.MethodPost, "/api/v1/users", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &user)
	if status != http.StatusCreated {
		tc.t.Fatalf("register failed with status %d", status)
	}
	if user.IsActive {
		tc.t.Fatalf("new account %s should be inactive", username)
	}

	tc.userID = user.ID
	tc.username = user.Username
	return linkPath(tc.t, inbox.WaitFor(tc.t, email, 1))
}

// Login stores the access token and the CSRF token minted with it
func (tc *TestClient) Login(username, password string) int {
	tc.t.Helper()

	raw, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		tc.t.Fatal(err)
	}
	resp, err := tc.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(raw))
	if err != nil {
		tc.t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		tc.t.Fatalf("failed to decode login response: %v", err)
	}
	for _, c := range resp.Cookies() {
		if c.Name == security.CSRFCookieName {
			tc.csrfToken = c.Value
		}
	}
	if tc.csrfToken == "" {
		tc.t.Fatal("login did not set the CSRF cookie")
	}

	tc.accessToken = token.AccessToken
	tc.userID = token.User.ID
	return resp.StatusCode
}

// uniqueUsername generates a unique username for testing
func uniqueUsername(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// uniqueEmail generates a unique email for testing
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// setupActiveUser registers, activates and logs in a new user
func setupActiveUser(t *testing.T, prefix string) *TestClient {
	t.Helper()

	client := NewTestClient(t)
	username := uniqueUsername(prefix)
	activation := client.Register(username, uniqueEmail(prefix), "password123")

	if status := client.DoJSON(http.MethodGet, activation, nil, nil); status != http.StatusOK {
		t.Fatalf("activation failed with status %d", status)
	}
	if status := client.Login(username, "password123"); status != http.StatusOK {
		t.Fatalf("login failed with status %d", status)
	}
	return client
}
