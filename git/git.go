// Package git extracts textual diffs between two revisions of a repository by
// shelling out to the git binary. All operations are read-only.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/casegen-io/casegen/logger"
)

const (
	// DefaultDiffAlgorithm is the algorithm used for computing diffs
	DefaultDiffAlgorithm = "minimal"
	// DefaultRenameThreshold is the threshold for detecting file renames
	DefaultRenameThreshold = "90%"
)

// ErrExternalTool marks failures of the underlying git invocation: bad
// repository path, unresolvable revision, non-zero exit. These are fatal to
// the run and never retried.
var ErrExternalTool = errors.New("git command failed")

// Runner defines an interface for running git commands
type Runner interface {
	Run(name string, args ...string) (string, error)
}

// Ensure DefaultRunner implements Runner interface
var _ Runner = (*DefaultRunner)(nil)

// DefaultRunner implements the Runner interface using exec.Command,
// scoped to a repository path.
type DefaultRunner struct {
	RepoPath string
}

// NewDefaultRunner creates a new instance of DefaultRunner
func NewDefaultRunner(repoPath string) *DefaultRunner {
	return &DefaultRunner{
		RepoPath: repoPath,
	}
}

// Run executes a command in the repository directory and returns its output
func (r *DefaultRunner) Run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if r.RepoPath != "" {
		cmd.Dir = r.RepoPath
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s\nstderr: %s", ErrExternalTool, err, stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Client provides the diff operations needed to describe a change set.
type Client struct {
	runner Runner
}

// NewClient creates a new Git client
func NewClient(runner Runner) *Client {
	return &Client{
		runner: runner,
	}
}

// DiffBetween returns the diff of all changes between base and head.
// An empty string is a valid result when the revisions are identical.
func (c *Client) DiffBetween(base, head string) (string, error) {
	if base == "" || head == "" {
		return "", fmt.Errorf("%w: base and head revisions cannot be empty", ErrExternalTool)
	}

	logger.Debugf("Generating diff for %s..%s", base, head)
	return c.getDiff(fmt.Sprintf("%s..%s", base, head), false)
}

// ChangedFiles returns the list of files changed between base and head.
func (c *Client) ChangedFiles(base, head string) ([]string, error) {
	if base == "" || head == "" {
		return nil, fmt.Errorf("%w: base and head revisions cannot be empty", ErrExternalTool)
	}

	output, err := c.getDiff(fmt.Sprintf("%s..%s", base, head), true)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

// RevParse resolves a revision to its full commit hash, verifying that it
// exists in the repository.
func (c *Client) RevParse(rev string) (string, error) {
	if rev == "" {
		return "", fmt.Errorf("%w: revision cannot be empty", ErrExternalTool)
	}
	return c.runner.Run("git", "rev-parse", "--verify", rev)
}

func (c *Client) getDiff(commitRange string, filesOnly bool) (string, error) {
	params := []string{
		"diff",
		"--no-color",
		"--no-ext-diff",
		"--diff-algorithm=" + DefaultDiffAlgorithm,
		"--find-renames=" + DefaultRenameThreshold,
		commitRange,
	}
	if filesOnly {
		params = append(params, "--name-only")
	}
	return c.runner.Run("git", params...)
}
