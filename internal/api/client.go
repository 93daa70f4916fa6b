package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/version"
)

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// Client is the HTTP layer shared by both backends. It sends every request
// exactly once and turns non-2xx responses into *Error values.
type Client struct {
	httpClient *retryablehttp.Client
	root       string
	token      string
	headers    nethttp.Header // extra headers sent with every request
	logger     *logging.Logger
}

// NewClient creates a client for the API rooted at root. The token is sent
// verbatim in the Authorization header.
func NewClient(root, token string, httpClient *nethttp.Client, headers nethttp.Header, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &nethttp.Client{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	// Single attempt: failures are terminal for the operation and the caller
	// decides whether to try again.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = 0
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient: retryClient,
		root:       strings.TrimSuffix(root, "/"),
		token:      token,
		headers:    headers.Clone(),
		logger:     logger,
	}
}

// Root returns the API root URL.
func (c *Client) Root() string {
	return c.root
}

// endpoint joins path segments onto the API root, escaping each one.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.root + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newRequest builds a request with authentication headers.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body []byte, contentType string) (*retryablehttp.Request, error) {
	var reqBody interface{}
	if body != nil {
		reqBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("evshare/%s", version.Version))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(op string, req *retryablehttp.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Str("op", op).Str("method", req.Method).Str("url", req.URL.Redacted()).Err(err).Msg("request failed")
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("DMS request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(op, resp.StatusCode, body)
	}
	return body, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, out interface{}) error {
	req, err := c.newRequest(ctx, nethttp.MethodGet, rawURL, nil, "")
	if err != nil {
		return transportError(op, err)
	}
	body, err := c.do(op, req)
	if err != nil {
		return err
	}
	return decode(op, body, out)
}

// sendJSON encodes payload, sends it with method and decodes the response into out.
func (c *Client) sendJSON(ctx context.Context, op, method, rawURL string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := c.newRequest(ctx, method, rawURL, data, "application/json")
	if err != nil {
		return transportError(op, err)
	}
	body, err := c.do(op, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(op, body, out)
}

// sendMultipart posts a prepared multipart body.
func (c *Client) sendMultipart(ctx context.Context, op, rawURL string, body []byte, contentType string, headers map[string]string) ([]byte, error) {
	req, err := c.newRequest(ctx, nethttp.MethodPost, rawURL, body, contentType)
	if err != nil {
		return nil, transportError(op, err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return c.do(op, req)
}

func decode(op string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return parseError(op, err)
	}
	return nil
}
