// Package llm abstracts the text-generation endpoint behind a single Prompt
// call. The primary provider speaks the Gemini REST contract; OpenAI and
// Anthropic are available behind the same interface.
package llm

import (
	"errors"
	"fmt"
	"os"

	"github.com/casegen-io/casegen/common"
)

// Supported provider names
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrTransient marks network errors, non-2xx statuses and malformed response
// bodies from the generation endpoint. Callers treat it as fatal once the
// transport-level retries are exhausted.
var ErrTransient = errors.New("transient service error")

// OptionType defines the type of option
type OptionType string

// Available option types
const (
	ModelNameOption   OptionType = "model"
	MaxTokensOption   OptionType = "max_tokens"
	TemperatureOption OptionType = "temperature"
	APITimeoutOption  OptionType = "api_timeout"
	BaseURLOption     OptionType = "base_url"
	RetryOption       OptionType = "retry"
)

// Option represents a generic configuration option for any provider
type Option struct {
	Type  OptionType
	Value any
}

// WithModel creates an option to set the model name
func WithModel(model string) Option {
	return Option{Type: ModelNameOption, Value: model}
}

// WithMaxTokens creates an option to set the maximum output length
func WithMaxTokens(maxTokens int) Option {
	return Option{Type: MaxTokensOption, Value: maxTokens}
}

// WithTemperature creates an option to set the sampling temperature
func WithTemperature(temperature float32) Option {
	return Option{Type: TemperatureOption, Value: temperature}
}

// WithAPITimeout creates an option to set the per-request timeout in seconds
func WithAPITimeout(timeout int) Option {
	return Option{Type: APITimeoutOption, Value: timeout}
}

// WithBaseURL creates an option to override the endpoint base URL
func WithBaseURL(baseURL string) Option {
	return Option{Type: BaseURLOption, Value: baseURL}
}

// WithRetryConfig creates an option to set the transport retry behavior
func WithRetryConfig(config common.RetryConfig) Option {
	return Option{Type: RetryOption, Value: config}
}

// Request represents one generation exchange
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Response represents the response from the model
type Response struct {
	Content string
	Error   error
}

// LLM defines the interface for language model prompting
type LLM interface {
	// Prompt sends a request to the language model and returns its response
	Prompt(req Request) Response
}

func getAPIKey() (string, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("LLM_API_KEY environment variable is not set")
	}
	return apiKey, nil
}

// NewLLM creates a client for the named provider, reading the API key from
// the environment. Explicit opts override the defaults.
func NewLLM(providerName, modelName string, opts ...Option) (LLM, error) {
	apiKey, err := getAPIKey()
	if err != nil {
		return nil, err
	}

	options := []Option{
		WithModel(modelName),
		WithTemperature(0.1),
		WithMaxTokens(1024),
		WithAPITimeout(60),
	}
	options = append(options, opts...)

	var client LLM
	switch providerName {
	case ProviderGemini:
		client, err = NewGemini(apiKey, options...)
	case ProviderOpenAI:
		client, err = NewOpenAI(apiKey, options...)
	case ProviderAnthropic:
		client, err = NewAnthropic(apiKey, options...)
	default:
		err = fmt.Errorf("unsupported provider: %s", providerName)
	}

	return client, err
}
