package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel implements the LLM interface using Anthropic's API
type AnthropicModel struct {
	client     anthropic.Client
	modelName  string
	maxTokens  int
	apiTimeout int // in seconds
}

// NewAnthropic creates a new Anthropic client
func NewAnthropic(apiKey string, opts ...Option) (*AnthropicModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key cannot be empty")
	}

	model := &AnthropicModel{
		modelName:  "claude-3.5-sonnet",
		maxTokens:  1024,
		apiTimeout: 60,
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}

	for _, opt := range opts {
		switch opt.Type {
		case ModelNameOption:
			if modelName, ok := opt.Value.(string); ok {
				model.modelName = modelName
			}
		case MaxTokensOption:
			if maxTokens, ok := opt.Value.(int); ok {
				model.maxTokens = maxTokens
			}
		case APITimeoutOption:
			if timeout, ok := opt.Value.(int); ok {
				model.apiTimeout = timeout
			}
		case BaseURLOption:
			if baseURL, ok := opt.Value.(string); ok {
				clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
			}
		}
	}

	model.client = anthropic.NewClient(clientOpts...)

	return model, nil
}

// Prompt sends a request to Anthropic and returns the response
func (a *AnthropicModel) Prompt(req Request) Response {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.apiTimeout)*time.Second)
	defer cancel()

	var model anthropic.Model
	switch a.modelName {
	case "claude-3.7-sonnet":
		model = anthropic.ModelClaude3_7SonnetLatest
	case "claude-3.5-sonnet":
		model = anthropic.ModelClaude3_5SonnetLatest
	case "claude-3.5-haiku":
		model = anthropic.ModelClaude3_5HaikuLatest
	default:
		model = anthropic.ModelClaude3_5SonnetLatest
	}

	messageParams := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: int64(a.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(req.UserPrompt),
				},
			},
		},
	}

	message, err := a.client.Messages.New(ctx, messageParams)
	if err != nil {
		return Response{Error: fmt.Errorf("%w: failed to create message: %v", ErrTransient, err)}
	}

	var content string
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += b.Text
		}
	}

	return Response{Content: content}
}
