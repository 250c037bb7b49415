package testrail

import (
	"fmt"

	"github.com/casegen-io/casegen/logger"
	"github.com/casegen-io/casegen/testcase"
	"golang.org/x/sync/errgroup"
)

// Result accumulates per-record outcomes of one upload batch.
type Result struct {
	Created int
	Failed  int

	CreatedTitles []string
	FailedTitles  []string
}

// Uploader submits parsed records to a project/suite, creating them inside a
// named section that is resolved (or created) once per batch.
type Uploader struct {
	client      *Client
	projectID   int
	suiteID     int
	sectionName string
	workers     int
}

// NewUploader creates an uploader for the given project and suite. workers
// bounds the number of concurrent create calls; 1 preserves record order.
func NewUploader(client *Client, projectID, suiteID int, sectionName string, workers int) *Uploader {
	if sectionName == "" {
		sectionName = "generic"
	}
	if workers < 1 {
		workers = 1
	}
	return &Uploader{
		client:      client,
		projectID:   projectID,
		suiteID:     suiteID,
		sectionName: sectionName,
		workers:     workers,
	}
}

// Upload creates one test case per record. A failed create is logged with the
// response body and recorded in the result; it never blocks the rest of the
// batch. The returned error is non-nil only when the batch could not start at
// all (section resolution failed).
func (u *Uploader) Upload(records []testcase.Record) (Result, error) {
	if len(records) == 0 {
		logger.Info("No test cases to create")
		return Result{}, nil
	}

	sectionID, err := u.resolveSection()
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve section %q: %w", u.sectionName, err)
	}

	errs := make([]error, len(records))

	g := new(errgroup.Group)
	g.SetLimit(u.workers)
	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			if err := u.client.AddCase(sectionID, record); err != nil {
				logger.Errorf("Failed to create test case %q: %v", record.Title, err)
				errs[i] = err
				return nil
			}
			logger.Infof("Created test case: %s", record.Title)
			return nil
		})
	}
	// Workers record failures instead of returning them, so Wait cannot fail.
	_ = g.Wait()

	var result Result
	for i, record := range records {
		if errs[i] != nil {
			result.Failed++
			result.FailedTitles = append(result.FailedTitles, record.Title)
			continue
		}
		result.Created++
		result.CreatedTitles = append(result.CreatedTitles, record.Title)
	}

	return result, nil
}

// resolveSection finds the target section by name, creating it when the suite
// does not have one yet.
func (u *Uploader) resolveSection() (int, error) {
	sections, err := u.client.GetSections(u.projectID, u.suiteID)
	if err != nil {
		return 0, err
	}

	for _, section := range sections {
		if section.Name == u.sectionName {
			logger.Debugf("Found existing section %q with ID %d", u.sectionName, section.ID)
			return section.ID, nil
		}
	}

	section, err := u.client.AddSection(u.projectID, u.suiteID, u.sectionName)
	if err != nil {
		return 0, err
	}
	logger.Infof("Created section %q with ID %d", u.sectionName, section.ID)
	return section.ID, nil
}
