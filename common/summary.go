package common

import "fmt"

// RunSummary aggregates the outcome of one pipeline run: how many test cases
// were created in the target service, how many model-output fragments were
// skipped during parsing, and how many uploads failed after retries.
type RunSummary struct {
	Created int
	Skipped int
	Failed  int

	// CreatedTitles and FailedTitles keep the record titles in submission
	// order for the report comment.
	CreatedTitles []string
	FailedTitles  []string
}

// Header is the hidden marker used to find and update an existing report
// comment instead of posting a duplicate.
func (s RunSummary) Header() string {
	return "<!-- casegen: run-summary -->"
}

// String renders the summary as the Markdown body of the report comment.
func (s RunSummary) String() string {
	out := s.Header() + "\n" +
		"## Generated Test Cases\n" +
		fmt.Sprintf("Created: %d | Skipped fragments: %d | Failed uploads: %d\n", s.Created, s.Skipped, s.Failed)

	if len(s.CreatedTitles) > 0 {
		out += "\n| # | Test case |\n|---|-----------|\n"
		for i, title := range s.CreatedTitles {
			out += fmt.Sprintf("| %d | %s |\n", i+1, Truncate(title, 120))
		}
	}

	if len(s.FailedTitles) > 0 {
		out += "\n### Failed to upload\n"
		for _, title := range s.FailedTitles {
			out += "- " + Truncate(title, 120) + "\n"
		}
	}

	return out
}

// Oneline renders the counts for terminal output.
func (s RunSummary) Oneline() string {
	return fmt.Sprintf("created %d, skipped %d, failed %d", s.Created, s.Skipped, s.Failed)
}
