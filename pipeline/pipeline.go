// Package pipeline wires the five stages together: extract the diff, build
// the prompt, call the model, parse the output, upload the records. Each stage
// consumes only the previous stage's output; all collaborators are constructed
// per run and injected so no state leaks across invocations.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/casegen-io/casegen/common"
	"github.com/casegen-io/casegen/llm"
	"github.com/casegen-io/casegen/logger"
	"github.com/casegen-io/casegen/prompt"
	"github.com/casegen-io/casegen/report"
	"github.com/casegen-io/casegen/testcase"
	"github.com/casegen-io/casegen/testrail"
)

// Differ extracts the diff between two revisions.
type Differ interface {
	DiffBetween(base, head string) (string, error)
}

// Uploader submits records to the test-management service.
type Uploader interface {
	Upload(records []testcase.Record) (testrail.Result, error)
}

// Target identifies the pull request to report on. Zero value disables
// reporting.
type Target struct {
	RepoOwner string
	RepoName  string
	PR        int
}

// Pipeline runs one diff-to-test-cases generation.
type Pipeline struct {
	differ   Differ
	model    llm.LLM
	uploader Uploader
	reporter report.Reporter
	target   Target
}

// New assembles a pipeline. reporter may be nil.
func New(differ Differ, model llm.LLM, uploader Uploader, reporter report.Reporter, target Target) *Pipeline {
	return &Pipeline{
		differ:   differ,
		model:    model,
		uploader: uploader,
		reporter: reporter,
		target:   target,
	}
}

// Run executes the pipeline for the given revision range. The returned
// summary is valid whenever the error is nil; per-record upload failures are
// reflected in the summary, not the error.
func (p *Pipeline) Run(base, head string) (common.RunSummary, error) {
	logger.Infof("Generating test cases for changes between %s and %s", base, head)

	diff, err := p.differ.DiffBetween(base, head)
	if err != nil {
		return common.RunSummary{}, fmt.Errorf("diff extraction failed: %w", err)
	}

	if diff == "" {
		logger.Info("No code changes found")
		return common.RunSummary{}, nil
	}
	logger.Infof("Found %d lines of code changes", len(strings.Split(diff, "\n")))

	resp := p.model.Prompt(llm.Request{
		SystemPrompt: prompt.GetSystemPrompt(),
		UserPrompt:   prompt.GetTestCasesPrompt(diff),
	})
	if resp.Error != nil {
		return common.RunSummary{}, fmt.Errorf("test case generation failed: %w", resp.Error)
	}

	records, skipped := testcase.Parse(resp.Content)
	logger.Infof("Parsed %d test case(s), skipped %d fragment(s)", len(records), skipped)

	result, err := p.uploader.Upload(records)
	if err != nil {
		return common.RunSummary{}, fmt.Errorf("upload failed: %w", err)
	}

	summary := common.RunSummary{
		Created:       result.Created,
		Skipped:       skipped,
		Failed:        result.Failed,
		CreatedTitles: result.CreatedTitles,
		FailedTitles:  result.FailedTitles,
	}

	if p.reporter != nil && p.target.PR > 0 {
		if err := p.reporter.PostSummary(p.target.RepoOwner, p.target.RepoName, p.target.PR, summary); err != nil {
			logger.Warnf("Failed to post summary comment: %v", err)
		}
	}

	return summary, nil
}
