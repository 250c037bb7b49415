package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/casegen-io/casegen/common"
	"github.com/casegen-io/casegen/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIModel implements the LLM interface using OpenAI's API
type OpenAIModel struct {
	client      *openai.Client
	modelName   string
	temperature float32
	maxTokens   int
	apiTimeout  int // in seconds
}

// NewOpenAI creates a new OpenAI client
func NewOpenAI(apiKey string, opts ...Option) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key cannot be empty")
	}

	model := &OpenAIModel{
		modelName:   "gpt-4.1",
		temperature: 0.1,
		maxTokens:   1024,
		apiTimeout:  60,
	}

	retryConfig := common.DefaultRetryConfig()
	config := openai.DefaultConfig(apiKey)

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
		case TemperatureOption:
			if temperature, ok := opt.Value.(float32); ok {
				model.temperature = temperature
			}
		case APITimeoutOption:
			if timeout, ok := opt.Value.(int); ok {
				model.apiTimeout = timeout
			}
		case BaseURLOption:
			if baseURL, ok := opt.Value.(string); ok {
				config.BaseURL = baseURL
			}
		case RetryOption:
			if rc, ok := opt.Value.(common.RetryConfig); ok {
				retryConfig = rc
			}
		}
	}

	config.HTTPClient = common.NewRetryableClient(retryConfig).StandardClient()
	model.client = openai.NewClientWithConfig(config)

	logger.Debugf("OpenAI client initialized with model: %s, max tokens: %d, timeout: %d seconds",
		model.modelName, model.maxTokens, model.apiTimeout)

	return model, nil
}

// Prompt sends a request to OpenAI and returns the response
func (o *OpenAIModel) Prompt(req Request) Response {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(o.apiTimeout)*time.Second)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserPrompt,
		},
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       o.modelName,
		Messages:    messages,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}

	logger.Infof("Sending request to OpenAI with model %s, max tokens %d", o.modelName, o.maxTokens)

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{Error: fmt.Errorf("%w: failed to create chat completion: %v", ErrTransient, err)}
	}

	if len(resp.Choices) == 0 {
		return Response{Error: fmt.Errorf("%w: OpenAI response contained no choices", ErrTransient)}
	}

	return Response{Content: resp.Choices[0].Message.Content}
}
