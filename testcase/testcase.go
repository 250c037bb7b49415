// Package testcase defines the structured test-case record and the tolerant
// extraction of records from free-form model output.
package testcase

import "fmt"

// Recognized priority labels. Matching is case-sensitive; anything else is
// rejected during validation.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)

// priorityIDs maps priority labels to TestRail severity codes.
var priorityIDs = map[string]int{
	PriorityCritical: 1,
	PriorityHigh:     2,
	PriorityMedium:   3,
	PriorityLow:      4,
}

// Record is one validated test case ready for upload. Records live only for
// the duration of a run; they are never persisted.
type Record struct {
	Title           string `json:"title"`
	Preconditions   string `json:"preconditions"`
	Steps           string `json:"steps"`
	ExpectedResults string `json:"expected_results"`
	Priority        string `json:"priority"`
}

// Validate reports whether the record carries all five required fields and a
// recognized priority label. Absent JSON keys decode to empty strings, so
// presence and non-emptiness are checked together.
func (r Record) Validate() error {
	switch {
	case r.Title == "":
		return fmt.Errorf("missing required field: title")
	case r.Preconditions == "":
		return fmt.Errorf("missing required field: preconditions")
	case r.Steps == "":
		return fmt.Errorf("missing required field: steps")
	case r.ExpectedResults == "":
		return fmt.Errorf("missing required field: expected_results")
	}
	if _, ok := priorityIDs[r.Priority]; !ok {
		return fmt.Errorf("unrecognized priority label: %q", r.Priority)
	}
	return nil
}

// PriorityID returns the TestRail severity code for the record's priority.
// Validation guarantees the label is known; the fallback covers records
// constructed outside the parser.
func (r Record) PriorityID() int {
	if id, ok := priorityIDs[r.Priority]; ok {
		return id
	}
	return priorityIDs[PriorityMedium]
}
