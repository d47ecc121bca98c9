package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"regexp"
	"time"
)

var (
	// ErrMaxRetriesExceeded reports that every attempt, including retries, failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout marks attempts that died waiting on the remote end.
	ErrRequestTimeout = errors.New("request timeout")
)

// RetryConfig controls how a RetryableHTTPClient schedules repeat attempts.
// Delays start at BaseDelay and double per retry up to MaxDelay; Timeout
// bounds each individual attempt.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// DefaultRetryConfig returns the stock schedule: three retries at 1s, 2s
// and 4s, with a 30 second cap per attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// RetryableHTTPClient retries transient failures with exponential backoff.
// Network errors, 5xx responses and 429 rate limits are retried; everything
// else is handed back to the caller untouched.
type RetryableHTTPClient struct {
	client         *http.Client
	config         RetryConfig
	delayFunc      func(time.Duration)
	recordedDelays []time.Duration
	defaultHeaders map[string]string
}

// NewRetryableHTTPClient returns a client using DefaultRetryConfig.
func NewRetryableHTTPClient() *RetryableHTTPClient {
	return NewRetryableHTTPClientWithConfig(DefaultRetryConfig())
}

// NewRetryableHTTPClientWithConfig returns a client with a caller-supplied
// retry schedule.
func NewRetryableHTTPClientWithConfig(config RetryConfig) *RetryableHTTPClient {
	return &RetryableHTTPClient{
		client:    &http.Client{Timeout: config.Timeout},
		config:    config,
		delayFunc: time.Sleep,
	}
}

// Do executes req, retrying transient failures. The context attached to req
// governs cancellation across all attempts.
func (c *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes req under ctx, retrying transient failures until
// the schedule is exhausted. Once it is, the last failure is wrapped in
// ErrMaxRetriesExceeded.
func (c *RetryableHTTPClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 0 {
			delay := c.calculateDelay(attempt)
			c.recordedDelays = append(c.recordedDelays, delay)
			c.delayFunc(delay)
		}

		resp, err := c.client.Do(req.Clone(ctx))
		switch {
		case err != nil:
			lastErr = err
			if isTimeout(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRequestTimeout, err)
			}
		case c.shouldRetry(resp.StatusCode):
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			lastResp = resp
		default:
			return resp, nil
		}
	}

	if lastErr == nil {
		return lastResp, ErrMaxRetriesExceeded
	}
	return lastResp, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// Get fetches url with the retry schedule applied.
func (c *RetryableHTTPClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetWithContext fetches url under ctx with the retry schedule applied.
func (c *RetryableHTTPClient) GetWithContext(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.DoWithContext(ctx, req)
}

// GetWithHeaders fetches url with the default headers plus headers, the
// latter winning on collision. Header values pass through SubstituteEnvVars
// so credentials can live in the environment rather than on disk.
func (c *RetryableHTTPClient) GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, SubstituteEnvVars(value))
	}
	for key, value := range headers {
		req.Header.Set(key, SubstituteEnvVars(value))
	}
	return c.DoWithContext(ctx, req)
}

// SetDefaultHeaders installs headers sent on every GetWithHeaders request.
func (c *RetryableHTTPClient) SetDefaultHeaders(headers map[string]string) {
	c.defaultHeaders = headers
}

// SetHTTPClient swaps the underlying transport client.
func (c *RetryableHTTPClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetDelayFunc replaces the sleep between retries. Tests use this to run
// the schedule without waiting it out.
func (c *RetryableHTTPClient) SetDelayFunc(fn func(time.Duration)) {
	c.delayFunc = fn
}

// GetRecordedDelays reports the backoff delays applied so far.
func (c *RetryableHTTPClient) GetRecordedDelays() []time.Duration {
	return c.recordedDelays
}

// ClearRecordedDelays resets the recorded delay history.
func (c *RetryableHTTPClient) ClearRecordedDelays() {
	c.recordedDelays = nil
}

// Config returns the retry schedule in effect.
func (c *RetryableHTTPClient) Config() RetryConfig {
	return c.config
}

// calculateDelay returns the backoff before the given retry attempt,
// doubling from BaseDelay and capping at MaxDelay.
func (c *RetryableHTTPClient) calculateDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := c.config.BaseDelay << (attempt - 1)
	if delay > c.config.MaxDelay {
		return c.config.MaxDelay
	}
	return delay
}

// shouldRetry reports whether a status code marks a transient failure.
func (c *RetryableHTTPClient) shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// envVarPattern matches the ${VAR} references accepted in header values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// SubstituteEnvVars expands ${VAR} references in value from the
// environment. Unset variables expand to the empty string.
func SubstituteEnvVars(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}
