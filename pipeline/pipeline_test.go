package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/casegen-io/casegen/common"
	"github.com/casegen-io/casegen/git"
	"github.com/casegen-io/casegen/llm"
	"github.com/casegen-io/casegen/testcase"
	"github.com/casegen-io/casegen/testrail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiffer struct {
	diff string
	err  error
}

func (f *fakeDiffer) DiffBetween(base, head string) (string, error) {
	return f.diff, f.err
}

type fakeModel struct {
	content  string
	err      error
	lastUser string
}

func (f *fakeModel) Prompt(req llm.Request) llm.Response {
	f.lastUser = req.UserPrompt
	return llm.Response{Content: f.content, Error: f.err}
}

type fakeUploader struct {
	records []testcase.Record
	result  testrail.Result
	err     error
	called  bool
}

func (f *fakeUploader) Upload(records []testcase.Record) (testrail.Result, error) {
	f.called = true
	f.records = records
	if f.err != nil {
		return testrail.Result{}, f.err
	}
	if f.result.Created == 0 && f.result.Failed == 0 {
		result := testrail.Result{}
		for _, r := range records {
			result.Created++
			result.CreatedTitles = append(result.CreatedTitles, r.Title)
		}
		return result, nil
	}
	return f.result, nil
}

type fakeReporter struct {
	summary common.RunSummary
	pr      int
	err     error
	called  bool
}

func (f *fakeReporter) PostSummary(owner, repo string, pr int, summary common.RunSummary) error {
	f.called = true
	f.pr = pr
	f.summary = summary
	return f.err
}

const oneRecord = `{"title":"T","preconditions":"P","steps":"S","expected_results":"E","priority":"High"}`

func TestRun_EmptyDiff(t *testing.T) {
	uploader := &fakeUploader{}
	p := New(&fakeDiffer{diff: ""}, &fakeModel{}, uploader, nil, Target{})

	summary, err := p.Run("base", "head")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Created)
	assert.False(t, uploader.called, "no model call or upload on empty diff")
}

func TestRun_SingleRecord(t *testing.T) {
	model := &fakeModel{content: oneRecord}
	uploader := &fakeUploader{}
	p := New(&fakeDiffer{diff: "+added line"}, model, uploader, nil, Target{})

	summary, err := p.Run("base", "head")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, uploader.records, 1)
	assert.Equal(t, 2, uploader.records[0].PriorityID())
	assert.True(t, strings.Contains(model.lastUser, "+added line"), "prompt should embed the diff")
}

func TestRun_MalformedFragmentSkipped(t *testing.T) {
	model := &fakeModel{content: oneRecord + "\n" + `{"title":"Bad"}`}
	uploader := &fakeUploader{}
	p := New(&fakeDiffer{diff: "+x"}, model, uploader, nil, Target{})

	summary, err := p.Run("base", "head")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, uploader.records, 1)
	assert.Equal(t, "T", uploader.records[0].Title)
}

func TestRun_PartialUploadFailure(t *testing.T) {
	model := &fakeModel{content: oneRecord}
	uploader := &fakeUploader{result: testrail.Result{
		Created:       2,
		Failed:        1,
		CreatedTitles: []string{"A", "C"},
		FailedTitles:  []string{"B"},
	}}
	p := New(&fakeDiffer{diff: "+x"}, model, uploader, nil, Target{})

	summary, err := p.Run("base", "head")
	require.NoError(t, err, "partial upload failure is not a pipeline error")

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"B"}, summary.FailedTitles)
}

func TestRun_DiffFailureIsFatal(t *testing.T) {
	differ := &fakeDiffer{err: git.ErrExternalTool}
	uploader := &fakeUploader{}
	p := New(differ, &fakeModel{}, uploader, nil, Target{})

	_, err := p.Run("base", "head")
	require.Error(t, err)
	assert.True(t, errors.Is(err, git.ErrExternalTool))
	assert.Contains(t, err.Error(), "diff extraction failed")
	assert.False(t, uploader.called)
}

func TestRun_ModelFailureIsFatal(t *testing.T) {
	model := &fakeModel{err: llm.ErrTransient}
	uploader := &fakeUploader{}
	p := New(&fakeDiffer{diff: "+x"}, model, uploader, nil, Target{})

	_, err := p.Run("base", "head")
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrTransient))
	assert.Contains(t, err.Error(), "test case generation failed")
	assert.False(t, uploader.called)
}

func TestRun_NoParseableRecords(t *testing.T) {
	model := &fakeModel{content: "I could not find any changes worth testing."}
	uploader := &fakeUploader{}
	p := New(&fakeDiffer{diff: "+x"}, model, uploader, nil, Target{})

	summary, err := p.Run("base", "head")
	require.NoError(t, err, "zero records is an empty result, not an error")
	assert.Equal(t, 0, summary.Created)
	assert.True(t, uploader.called)
	assert.Empty(t, uploader.records)
}

func TestRun_ReportsSummary(t *testing.T) {
	model := &fakeModel{content: oneRecord}
	reporter := &fakeReporter{}
	p := New(&fakeDiffer{diff: "+x"}, model, &fakeUploader{}, reporter, Target{
		RepoOwner: "octo",
		RepoName:  "calc",
		PR:        12,
	})

	summary, err := p.Run("base", "head")
	require.NoError(t, err)

	assert.True(t, reporter.called)
	assert.Equal(t, 12, reporter.pr)
	assert.Equal(t, summary, reporter.summary)
}

func TestRun_ReporterFailureIsNotFatal(t *testing.T) {
	model := &fakeModel{content: oneRecord}
	reporter := &fakeReporter{err: errors.New("github down")}
	p := New(&fakeDiffer{diff: "+x"}, model, &fakeUploader{}, reporter, Target{
		RepoOwner: "octo",
		RepoName:  "calc",
		PR:        12,
	})

	summary, err := p.Run("base", "head")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
}
