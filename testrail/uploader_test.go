package testrail

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/casegen-io/casegen/testcase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSONBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

func record(title string) testcase.Record {
	return testcase.Record{
		Title:           title,
		Preconditions:   "P",
		Steps:           "S",
		ExpectedResults: "E",
		Priority:        "Medium",
	}
}

// fakeTestRail is a minimal in-memory TestRail double.
type fakeTestRail struct {
	mu       sync.Mutex
	sections []Section
	created  []string
	failFor  map[string]int // title -> status code to return
}

func (f *fakeTestRail) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		uri := r.URL.RequestURI()
		switch {
		case strings.Contains(uri, "get_sections"):
			fmt.Fprint(w, "[")
			for i, s := range f.sections {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id": %d, "name": %q, "suite_id": %d}`, s.ID, s.Name, s.SuiteID)
			}
			fmt.Fprint(w, "]")
		case strings.Contains(uri, "add_section"):
			section := Section{ID: 99, Name: "generic", SuiteID: 5}
			f.sections = append(f.sections, section)
			fmt.Fprintf(w, `{"id": %d, "name": %q, "suite_id": %d}`, section.ID, section.Name, section.SuiteID)
		case strings.Contains(uri, "add_case"):
			var body struct {
				Title string `json:"title"`
			}
			decodeJSONBody(t, r, &body)
			if code, ok := f.failFor[body.Title]; ok {
				http.Error(w, `{"error": "boom"}`, code)
				return
			}
			f.created = append(f.created, body.Title)
			fmt.Fprint(w, `{"id": 1}`)
		default:
			t.Errorf("unexpected request: %s", uri)
			http.NotFound(w, r)
		}
	})
}

func TestUpload_CreatesAllRecords(t *testing.T) {
	fake := &fakeTestRail{sections: []Section{{ID: 7, Name: "generic", SuiteID: 5}}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	uploader := NewUploader(newTestClient(t, server.URL), 3, 5, "generic", 1)

	result, err := uploader.Upload([]testcase.Record{record("A"), record("B"), record("C")})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{"A", "B", "C"}, result.CreatedTitles)
	assert.Equal(t, []string{"A", "B", "C"}, fake.created, "sequential upload preserves parser order")
}

func TestUpload_PartialFailureContinues(t *testing.T) {
	fake := &fakeTestRail{
		sections: []Section{{ID: 7, Name: "generic", SuiteID: 5}},
		failFor:  map[string]int{"B": http.StatusInternalServerError},
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	uploader := NewUploader(newTestClient(t, server.URL), 3, 5, "generic", 1)

	result, err := uploader.Upload([]testcase.Record{record("A"), record("B"), record("C")})
	require.NoError(t, err, "per-record failure must not fail the batch")

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"A", "C"}, result.CreatedTitles)
	assert.Equal(t, []string{"B"}, result.FailedTitles)
}

func TestUpload_CreatesSectionWhenMissing(t *testing.T) {
	fake := &fakeTestRail{sections: []Section{{ID: 1, Name: "regression", SuiteID: 5}}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	uploader := NewUploader(newTestClient(t, server.URL), 3, 5, "generic", 1)

	result, err := uploader.Upload([]testcase.Record{record("A")})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	found := false
	for _, s := range fake.sections {
		if s.Name == "generic" {
			found = true
		}
	}
	assert.True(t, found, "expected the generic section to be created")
}

func TestUpload_SectionResolutionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "no such project"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	uploader := NewUploader(newTestClient(t, server.URL), 3, 5, "generic", 1)

	_, err := uploader.Upload([]testcase.Record{record("A")})
	require.Error(t, err)
}

func TestUpload_NoRecords(t *testing.T) {
	uploader := NewUploader(nil, 3, 5, "generic", 1)

	result, err := uploader.Upload(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Failed)
}

func TestUpload_ParallelWorkers(t *testing.T) {
	fake := &fakeTestRail{sections: []Section{{ID: 7, Name: "generic", SuiteID: 5}}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	uploader := NewUploader(newTestClient(t, server.URL), 3, 5, "generic", 4)

	var records []testcase.Record
	for i := 0; i < 10; i++ {
		records = append(records, record(fmt.Sprintf("case-%d", i)))
	}

	result, err := uploader.Upload(records)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Created)
	assert.Equal(t, 0, result.Failed)
	// CreatedTitles stays in record order regardless of completion order.
	for i, title := range result.CreatedTitles {
		assert.Equal(t, fmt.Sprintf("case-%d", i), title)
	}
}
