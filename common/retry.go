package common

import (
	"time"

	"github.com/casegen-io/casegen/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// RetryConfig holds the retry behavior applied to outbound HTTP calls.
// The generation endpoint and the test-management service both rate limit,
// so transient 429/5xx responses are retried with backoff before surfacing.
type RetryConfig struct {
	// RetryMax is the number of retries after the initial attempt. Zero
	// means a single attempt.
	RetryMax int
	// RetryWaitMin is the minimum wait between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum wait between retries.
	RetryWaitMax time.Duration
}

// DefaultRetryConfig mirrors the defaults of the original automation:
// three retries with a few seconds of backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		RetryMax:     3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 5 * time.Second,
	}
}

// NewRetryableClient creates an HTTP client that retries transient failures
// (connection errors, 429, 5xx) according to config.
func NewRetryableClient(config RetryConfig) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = config.RetryWaitMin
	client.RetryWaitMax = config.RetryWaitMax
	client.Logger = &zapRetryLogger{}

	logger.Debugf("created retryable HTTP client: max retries %d, wait %s..%s",
		config.RetryMax, config.RetryWaitMin, config.RetryWaitMax)

	return client
}

// zapRetryLogger adapts the zap logger to the LeveledLogger interface
// expected by retryablehttp.
type zapRetryLogger struct{}

func (z *zapRetryLogger) Error(msg string, keysAndValues ...interface{}) {
	logger.Error(append([]interface{}{msg}, keysAndValues...)...)
}

func (z *zapRetryLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Info(append([]interface{}{msg}, keysAndValues...)...)
}

func (z *zapRetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	logger.Debug(append([]interface{}{msg}, keysAndValues...)...)
}

func (z *zapRetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	logger.Warn(append([]interface{}{msg}, keysAndValues...)...)
}
