package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/casegen-io/casegen/common"
	"github.com/google/go-github/v48/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(t *testing.T, serverURL string) *GitHub {
	t.Helper()
	client := github.NewClient(nil)
	baseURL, err := url.Parse(serverURL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL
	return &GitHub{client: client, timeout: 10}
}

func TestPostSummary_CreatesComment(t *testing.T) {
	var createdBody string

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/calc/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `[{"id": 1, "body": "unrelated comment"}]`)
		case http.MethodPost:
			var comment github.IssueComment
			require.NoError(t, json.NewDecoder(r.Body).Decode(&comment))
			createdBody = comment.GetBody()
			fmt.Fprint(w, `{"id": 2}`)
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gh := newTestReporter(t, server.URL)
	summary := common.RunSummary{Created: 1, CreatedTitles: []string{"Verify addition"}}

	require.NoError(t, gh.PostSummary("octo", "calc", 12, summary))

	assert.Contains(t, createdBody, summary.Header())
	assert.Contains(t, createdBody, "Verify addition")
}

func TestPostSummary_UpdatesExistingComment(t *testing.T) {
	summary := common.RunSummary{Created: 2}

	var edited bool
	var created bool

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/calc/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			existing, _ := json.Marshal(summary.Header() + "\nold body")
			fmt.Fprintf(w, `[{"id": 5, "body": %s}]`, existing)
		case http.MethodPost:
			created = true
			fmt.Fprint(w, `{"id": 6}`)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/repos/octo/calc/issues/comments/5", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			http.NotFound(w, r)
			return
		}
		edited = true
		fmt.Fprint(w, `{"id": 5}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gh := newTestReporter(t, server.URL)

	require.NoError(t, gh.PostSummary("octo", "calc", 12, summary))
	assert.True(t, edited, "expected the existing comment to be edited")
	assert.False(t, created, "expected no duplicate comment")
}

func TestNewGitHub_RequiresToken(t *testing.T) {
	_, err := NewGitHub("", 10)
	require.Error(t, err)
}
