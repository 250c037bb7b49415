// Package testrail talks to the TestRail REST API to create test cases.
// TestRail routes every call through index.php with the API path in the query
// string, and authenticates with Basic auth (user + API key).
package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casegen-io/casegen/common"
	"github.com/casegen-io/casegen/logger"
	"github.com/casegen-io/casegen/testcase"
	"github.com/hashicorp/go-retryablehttp"
)

// TypeIDFunctional is the fixed TestRail case type for generated cases.
const TypeIDFunctional = 1

// OptionType defines the type of option for the TestRail client
type OptionType string

// Available option types
const (
	CredentialsOption OptionType = "credentials"
	TimeoutOption     OptionType = "timeout"
	RetryOption       OptionType = "retry"
)

// Option represents a generic configuration option for the TestRail client
type Option struct {
	Type  OptionType
	Value any
}

type credentials struct {
	user   string
	apiKey string
}

// WithCredentials creates an option to set the Basic auth credentials
func WithCredentials(user, apiKey string) Option {
	return Option{Type: CredentialsOption, Value: credentials{user: user, apiKey: apiKey}}
}

// WithTimeout creates an option to set the per-request timeout in seconds
func WithTimeout(timeout int) Option {
	return Option{Type: TimeoutOption, Value: timeout}
}

// WithRetryConfig creates an option to set the transport retry behavior
func WithRetryConfig(config common.RetryConfig) Option {
	return Option{Type: RetryOption, Value: config}
}

// StatusError is a non-success response from TestRail. The body is kept for
// the per-record failure log.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("testrail returned status %d: %s", e.StatusCode, e.Body)
}

// Section is a TestRail section; cases can only be created inside one.
type Section struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	SuiteID int    `json:"suite_id"`
}

// casePayload is the add_case request body. The four free-text record fields
// map onto TestRail custom fields.
type casePayload struct {
	Title          string `json:"title"`
	TypeID         int    `json:"type_id"`
	PriorityID     int    `json:"priority_id"`
	CustomPreconds string `json:"custom_preconds"`
	CustomSteps    string `json:"custom_steps"`
	CustomExpected string `json:"custom_expected"`
	SectionID      int    `json:"section_id"`
}

type addSectionPayload struct {
	Name        string `json:"name"`
	SuiteID     int    `json:"suite_id"`
	Description string `json:"description"`
}

// Client is a TestRail API client scoped to one instance URL.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	user       string
	apiKey     string
	timeout    int // in seconds
}

// NewClient creates a TestRail client for the given instance URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("TestRail URL cannot be empty")
	}

	client := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: 60,
	}

	retryConfig := common.DefaultRetryConfig()

	for _, opt := range opts {
		switch opt.Type {
		case CredentialsOption:
			if creds, ok := opt.Value.(credentials); ok {
				client.user = creds.user
				client.apiKey = creds.apiKey
			}
		case TimeoutOption:
			if timeout, ok := opt.Value.(int); ok {
				client.timeout = timeout
			}
		case RetryOption:
			if config, ok := opt.Value.(common.RetryConfig); ok {
				retryConfig = config
			}
		}
	}

	if client.user == "" || client.apiKey == "" {
		return nil, fmt.Errorf("TestRail credentials are required")
	}

	client.httpClient = common.NewRetryableClient(retryConfig)

	return client, nil
}

// GetSections lists the sections of a suite.
func (c *Client) GetSections(projectID, suiteID int) ([]Section, error) {
	url := fmt.Sprintf("%s/index.php?/api/v2/get_sections/%d&suite_id=%d", c.baseURL, projectID, suiteID)

	body, err := c.do(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var sections []Section
	if err := json.Unmarshal(body, &sections); err != nil {
		return nil, fmt.Errorf("malformed get_sections response: %w", err)
	}
	return sections, nil
}

// AddSection creates a section in the given project and suite.
func (c *Client) AddSection(projectID, suiteID int, name string) (Section, error) {
	url := fmt.Sprintf("%s/index.php?/api/v2/add_section/%d", c.baseURL, projectID)

	payload := addSectionPayload{
		Name:        name,
		SuiteID:     suiteID,
		Description: "Test cases generated automatically from code changes",
	}

	body, err := c.do(http.MethodPost, url, payload)
	if err != nil {
		return Section{}, err
	}

	var section Section
	if err := json.Unmarshal(body, &section); err != nil {
		return Section{}, fmt.Errorf("malformed add_section response: %w", err)
	}
	return section, nil
}

// AddCase creates one test case in the given section. The priority label is
// translated to its severity code and the case type is fixed to functional.
func (c *Client) AddCase(sectionID int, record testcase.Record) error {
	url := fmt.Sprintf("%s/index.php?/api/v2/add_case/%d", c.baseURL, sectionID)

	payload := casePayload{
		Title:          record.Title,
		TypeID:         TypeIDFunctional,
		PriorityID:     record.PriorityID(),
		CustomPreconds: record.Preconditions,
		CustomSteps:    record.Steps,
		CustomExpected: record.ExpectedResults,
		SectionID:      sectionID,
	}

	_, err := c.do(http.MethodPost, url, payload)
	return err
}

func (c *Client) do(method, url string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.timeout)*time.Second)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling testrail: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading testrail response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debugf("TestRail call %s failed with status %d", url, resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
