package handler

import (
	"net/http"
	"testing"

	"blog-api/internal/domain"
	"blog-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	author := s.addUser()
	reader := s.addUser()
	post := testutil.NewTestPost(author.ID)
	require.NoError(t, s.posts.Create(t.Context(), post))

	readerSess := s.login(t, reader.Username, "")
	authorSess := s.login(t, author.Username, "")
	commentsPath := "/api/v1/posts/" + itoa(post.ID) + "/comments"

	w := s.do(t, http.MethodPost, commentsPath, map[string]string{"body": "  Great read  "}, &readerSess)
	testutil.AssertStatusCode(t, w, http.StatusCreated)
	comment := testutil.DecodeJSON[domain.Comment](t, w)
	assert.Equal(t, "Great read", comment.Body)
	assert.Equal(t, reader.ID, comment.OwnerID)

	w = s.do(t, http.MethodGet, commentsPath, nil, nil)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.Len(t, testutil.DecodeJSON[[]domain.Comment](t, w), 1)

	commentPath := "/api/v1/comments/" + itoa(comment.ID)

	w = s.do(t, http.MethodPut, commentPath, map[string]string{"body": "hijacked"}, &authorSess)
	testutil.AssertStatusCode(t, w, http.StatusForbidden)

	w = s.do(t, http.MethodPut, commentPath, map[string]string{"body": "Great read, thanks"}, &readerSess)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, "Great read, thanks", testutil.DecodeJSON[domain.Comment](t, w).Body)

	w = s.do(t, http.MethodDelete, commentPath, nil, &authorSess)
	testutil.AssertStatusCode(t, w, http.StatusForbidden)

	w = s.do(t, http.MethodDelete, commentPath, nil, &readerSess)
	testutil.AssertStatusCode(t, w, http.StatusNoContent)

	w = s.do(t, http.MethodDelete, commentPath, nil, &readerSess)
	testutil.AssertStatusCode(t, w, http.StatusNotFound)
}

func TestCommentHandler_Create(t *testing.T) {
	s := newTestServer(t)
	author := s.addUser()
	reader := s.addUser()
	draft := testutil.NewTestPost(author.ID, testutil.WithDraft())
	require.NoError(t, s.posts.Create(t.Context(), draft))
	sess := s.login(t, reader.Username, "")

	tests := []struct {
		name     string
		postID   int64
		body     string
		wantCode int
	}{
		{"empty_body", draft.ID, "", http.StatusBadRequest},
		{"blank_body", draft.ID, "   ", http.StatusBadRequest},
		{"draft_post", draft.ID, "hello", http.StatusNotFound},
		{"missing_post", 999, "hello", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/posts/"+itoa(tt.postID)+"/comments", map[string]string{"body": tt.body}, &sess)
			testutil.AssertStatusCode(t, w, tt.wantCode)
		})
	}
	assert.Empty(t, s.comments.Comments)
}

func TestCommentHandler_React(t *testing.T) {
	s := newTestServer(t)
	author := s.addUser()
	reader := s.addUser()
	post := testutil.NewTestPost(author.ID)
	require.NoError(t, s.posts.Create(t.Context(), post))
	comment := testutil.NewTestComment(post.ID, author.ID, "")
	require.NoError(t, s.comments.Create(t.Context(), comment))

	sess := s.login(t, reader.Username, "")
	path := func(action string) string {
		return "/api/v1/comments/" + itoa(comment.ID) + "/" + action
	}

	w := s.do(t, http.MethodPost, path("like"), nil, &sess)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	resp := testutil.DecodeJSON[ReactionResponse](t, w)
	assert.True(t, resp.Active)
	assert.Equal(t, domain.ReactionLike, resp.Action)
	assert.Equal(t, 1, resp.Comment.Likes)

	w = s.do(t, http.MethodPost, path("dislike"), nil, &sess)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	resp = testutil.DecodeJSON[ReactionResponse](t, w)
	assert.True(t, resp.Active)
	assert.Equal(t, 0, resp.Comment.Likes)
	assert.Equal(t, 1, resp.Comment.Dislikes)

	w = s.do(t, http.MethodPost, path("dislike"), nil, &sess)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	resp = testutil.DecodeJSON[ReactionResponse](t, w)
	assert.False(t, resp.Active)
	assert.Equal(t, 0, resp.Comment.Dislikes)

	w = s.do(t, http.MethodPost, path("love"), nil, &sess)
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodPost, "/api/v1/comments/999/like", nil, &sess)
	testutil.AssertStatusCode(t, w, http.StatusNotFound)
}
