// Package report posts the run summary as a pull-request comment so reviewers
// can see which test cases were generated for their change. Reporting is best
// effort; failures here never fail the run.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casegen-io/casegen/common"
	"github.com/google/go-github/v48/github"
	"golang.org/x/oauth2"
)

// Reporter posts a run summary to a pull request.
type Reporter interface {
	PostSummary(repoOwner, repoName string, pr int, summary common.RunSummary) error
}

// GitHub implements Reporter against the GitHub API.
type GitHub struct {
	client  *github.Client
	timeout int // in seconds
}

// NewGitHub creates a GitHub reporter authenticated with the given token.
func NewGitHub(apiToken string, timeout int) (*GitHub, error) {
	if apiToken == "" {
		return nil, fmt.Errorf("API token is required for GitHub")
	}
	if timeout <= 0 {
		timeout = 60
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHub{
		client:  github.NewClient(tc),
		timeout: timeout,
	}, nil
}

// PostSummary creates the summary comment on the pull request, or updates the
// existing one found by its hidden header marker.
func (gh *GitHub) PostSummary(repoOwner, repoName string, pr int, summary common.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gh.timeout)*time.Second)
	defer cancel()

	comments, _, err := gh.client.Issues.ListComments(ctx, repoOwner, repoName, pr, nil)
	if err != nil {
		return fmt.Errorf("failed to list existing comments: %w", err)
	}

	var commentID int64
	for _, c := range comments {
		if c.Body != nil && strings.HasPrefix(*c.Body, summary.Header()) {
			commentID = c.GetID()
			break
		}
	}

	commentBody := summary.String()
	comment := &github.IssueComment{Body: &commentBody}

	if commentID > 0 {
		_, _, err = gh.client.Issues.EditComment(ctx, repoOwner, repoName, commentID, comment)
		if err != nil {
			return fmt.Errorf("failed to update existing summary comment: %w", err)
		}
		return nil
	}

	_, _, err = gh.client.Issues.CreateComment(ctx, repoOwner, repoName, pr, comment)
	if err != nil {
		return fmt.Errorf("failed to post summary comment: %w", err)
	}
	return nil
}
