// Package httpclient implements the shared upstream request executor:
// bounded retries with linear backoff and pluggable response classification.
// Both the VPN provisioning API and the Telegram Bot API are driven through
// it; only the Classifier differs between the two.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"panel-backend/pkg/metrics"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
)

// Classifier turns an upstream HTTP response into a payload or a classified
// error. Implementations decide what "failure" means for their provider:
// plain REST APIs fail by status code, Telegram answers 200 with an embedded
// ok flag.
type Classifier interface {
	Classify(status int, header http.Header, body []byte) ([]byte, *Error)
}

// Client executes JSON requests against a single upstream base URL.
// It is stateless aside from configuration and safe for concurrent use.
type Client struct {
	name       string
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	classifier Classifier
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Name labels the client in metrics and error messages.
	Name       string
	Headers    map[string]string
	Classifier Classifier
	MaxRetries int
	BaseDelay  time.Duration
	HTTPClient *http.Client
	// Sleep replaces the backoff sleeper. Tests use it to observe delays
	// without waiting them out.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a request executor for the given base URL.
func New(baseURL string, opts Options) *Client {
	c := &Client{
		name:       opts.Name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    opts.Headers,
		httpClient: opts.HTTPClient,
		classifier: opts.Classifier,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		sleep:      opts.Sleep,
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.name == "" {
		c.name = "upstream"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.classifier == nil {
		c.classifier = StatusClassifier{}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultBaseDelay
	}
	return c
}

// Request executes one logical request: query parameters are encoded into
// the URL, body is serialized as JSON, and the response is run through the
// classifier. Transient failures are retried up to the attempt limit with
// linear backoff (baseDelay * attempt between attempts, none after the
// last); rate-limited responses honor the provider-suggested delay instead
// of the default backoff. Definitive classifications propagate immediately.
// Exhausting all attempts yields a KindTimeout error.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, NewError(KindInvalidRequest, "encoding request body: %v", err)
		}
		payload = encoded
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		result, err := c.do(ctx, method, reqURL, payload)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimited {
			// Provider told us when to come back; this replaces the default
			// backoff for the attempt.
			delay := apiErr.RetryAfter
			if delay <= 0 {
				delay = c.baseDelay * time.Duration(attempt)
			}
			metrics.UpstreamRetriesTotal.WithLabelValues(c.name).Inc()
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, serr
			}
			continue
		}

		if !IsRetryable(err) {
			metrics.UpstreamFailuresTotal.WithLabelValues(c.name, string(KindOf(err))).Inc()
			return nil, err
		}

		if attempt < c.maxRetries {
			metrics.UpstreamRetriesTotal.WithLabelValues(c.name).Inc()
			if serr := c.sleep(ctx, c.baseDelay*time.Duration(attempt)); serr != nil {
				return nil, serr
			}
		}
	}

	metrics.UpstreamFailuresTotal.WithLabelValues(c.name, string(KindTimeout)).Inc()
	return nil, &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("%s request failed after %d attempts: %v", c.name, c.maxRetries, lastErr),
	}
}

func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, NewError(KindInvalidRequest, "building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(c.name).Inc()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	result, apiErr := c.classifier.Classify(resp.StatusCode, resp.Header, body)
	if apiErr != nil {
		return nil, apiErr
	}
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
