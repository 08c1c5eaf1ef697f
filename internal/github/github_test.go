package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/promptscore/internal/evaluation"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := newClient(server.Client(), server.URL)
	require.NoError(t, err)
	return c
}

func TestListPRFiles_Paginates(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/prompts/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/prompts/pulls/7/files?page=2&per_page=100>; rel="next"`, server.URL))
			fmt.Fprint(w, `[
				{"filename":"prompts/a.md","status":"modified"},
				{"filename":"prompts/gone.md","status":"removed"}
			]`)
		case "2":
			fmt.Fprint(w, `[
				{"filename":"prompts/new.md","previous_filename":"prompts/old.md","status":"renamed"},
				{"filename":"prompts/b.md","status":"added"}
			]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	c, err := newClient(server.Client(), server.URL)
	require.NoError(t, err)

	changes, err := c.ListPRFiles(context.Background(), "acme", "prompts", 7)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "prompts/a.md", changes[0].Path)
	assert.Equal(t, evaluation.StatusModified, changes[0].Status)
	assert.Equal(t, "prompts/new.md", changes[1].Path)
	assert.Equal(t, "prompts/old.md", changes[1].PreviousPath)
	assert.Equal(t, evaluation.StatusRenamed, changes[1].Status)
	assert.Equal(t, evaluation.StatusAdded, changes[2].Status)
}

func TestUpsertComment_UpdatesExisting(t *testing.T) {
	var edited string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/prompts/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":1,"body":"looks good"},
			{"id":42,"body":"<!-- promptscore-report -->\nold report"}
		]`)
	})
	mux.HandleFunc("PATCH /repos/acme/prompts/issues/comments/42", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		edited = body.Body
		fmt.Fprint(w, `{"id":42}`)
	})
	mux.HandleFunc("POST /repos/acme/prompts/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not create a new comment")
	})
	c := testClient(t, mux)

	created, err := c.UpsertComment(context.Background(), "acme", "prompts", 7, "<!-- promptscore-report -->", "<!-- promptscore-report -->\nnew report")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "<!-- promptscore-report -->\nnew report", edited)
}

func TestUpsertComment_CreatesWhenMissing(t *testing.T) {
	var posted string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/prompts/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"body":"unrelated"}]`)
	})
	mux.HandleFunc("POST /repos/acme/prompts/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		posted = string(data)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":2}`)
	})
	c := testClient(t, mux)

	created, err := c.UpsertComment(context.Background(), "acme", "prompts", 7, "<!-- m -->", "<!-- m --> report")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, posted, "report")
}

func TestSubmitReview(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/prompts/pulls/7/reviews", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"id":9}`)
	})
	c := testClient(t, mux)

	require.NoError(t, c.SubmitReview(context.Background(), "acme", "prompts", 7, "REQUEST_CHANGES", "**Verdict: ❌ REJECT**", "abc123"))
	assert.Equal(t, "REQUEST_CHANGES", got["event"])
	assert.Equal(t, "abc123", got["commit_id"])
}

func TestIsAuthError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/prompts/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})
	c := testClient(t, mux)

	_, err := c.ListPRFiles(context.Background(), "acme", "prompts", 7)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.False(t, IsAuthError(fmt.Errorf("plain")))
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"HTTPS", "https://github.com/acme/prompts.git", "acme", "prompts", false},
		{"HTTPS no .git", "https://github.com/acme/prompts", "acme", "prompts", false},
		{"SSH", "git@github.com:acme/prompts.git", "acme", "prompts", false},
		{"SSH no .git", "git@github.com:acme/prompts", "acme", "prompts", false},
		{"invalid", "not-a-url", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRemoteURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestParseRepository(t *testing.T) {
	owner, repo, err := ParseRepository("acme/prompts")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "prompts", repo)

	for _, bad := range []string{"", "acme", "/prompts", "acme/", "a/b/c"} {
		_, _, err := ParseRepository(bad)
		assert.Error(t, err, bad)
	}
}
