package llm

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
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultGeminiBaseURL is the production generative-language endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiModel implements the LLM interface against the Gemini REST API.
// Rate limiting (429) and server errors are retried by the underlying
// transport before a transient error is surfaced.
type GeminiModel struct {
	httpClient  *retryablehttp.Client
	apiKey      string
	baseURL     string
	modelName   string
	temperature float32
	maxTokens   int
	apiTimeout  int // in seconds
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGemini creates a new Gemini client
func NewGemini(apiKey string, opts ...Option) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key cannot be empty")
	}

	model := &GeminiModel{
		apiKey:      apiKey,
		baseURL:     DefaultGeminiBaseURL,
		modelName:   "gemini-2.0-flash",
		temperature: 0.1,
		maxTokens:   1024,
		apiTimeout:  60,
	}

	retryConfig := common.DefaultRetryConfig()

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
				model.baseURL = strings.TrimSuffix(baseURL, "/")
			}
		case RetryOption:
			if config, ok := opt.Value.(common.RetryConfig); ok {
				retryConfig = config
			}
		}
	}

	model.httpClient = common.NewRetryableClient(retryConfig)

	logger.Debugf("Gemini client initialized with model: %s, max tokens: %d, timeout: %d seconds",
		model.modelName, model.maxTokens, model.apiTimeout)

	return model, nil
}

// Prompt sends a generation request and returns the concatenated text of the
// first candidate. The prompt and response are never logged or persisted;
// diffs may contain sensitive code.
func (g *GeminiModel) Prompt(req Request) Response {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(g.apiTimeout)*time.Second)
	defer cancel()

	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: req.UserPrompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{Error: fmt.Errorf("failed to encode request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.modelName)
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{Error: fmt.Errorf("failed to build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	logger.Infof("Sending request to Gemini with model %s, max output tokens %d", g.modelName, g.maxTokens)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return Response{Error: fmt.Errorf("%w: calling generation endpoint: %v", ErrTransient, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{Error: fmt.Errorf("%w: generation endpoint returned status %d", ErrTransient, resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Error: fmt.Errorf("%w: reading response body: %v", ErrTransient, err)}
	}

	var decoded geminiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{Error: fmt.Errorf("%w: malformed response body: %v", ErrTransient, err)}
	}

	if len(decoded.Candidates) == 0 {
		return Response{Error: fmt.Errorf("%w: response contained no candidates", ErrTransient)}
	}

	var sb strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return Response{Content: sb.String()}
}
