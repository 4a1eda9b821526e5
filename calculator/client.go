package calculator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/s0up4200/calc-consumer/logging"
)

// Client represents a calculator producer API client
type Client struct {
	baseURL     string
	http        *resty.Client
	interceptor Interceptor
	params      ParamNames
	logger      zerolog.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a new calculator client. No request is made until the first call.
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: producer URL is required", ErrInvalidConfig)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid producer URL %q", ErrInvalidConfig, baseURL)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.params.Validate(); err != nil {
		return nil, err
	}

	var rc *resty.Client
	if options.httpClient != nil {
		// resty writes the timeout into the client it is given
		hc := *options.httpClient
		rc = resty.NewWithClient(&hc)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetTimeout(options.timeout).
		SetLogger(logging.Resty(logger)).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", options.userAgent)

	return &Client{
		baseURL:     baseURL,
		http:        rc,
		interceptor: options.interceptor,
		params:      options.params,
		logger:      logger,
	}, nil
}

// BaseURL returns the producer URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Add returns x + y as computed by the producer
func (c *Client) Add(ctx context.Context, x, y float64) (float64, error) {
	return c.Calculate(ctx, OperationAdd, x, y)
}

// Multiply returns x * y as computed by the producer
func (c *Client) Multiply(ctx context.Context, x, y float64) (float64, error) {
	return c.Calculate(ctx, OperationMultiply, x, y)
}

// Divide returns x / y as computed by the producer
func (c *Client) Divide(ctx context.Context, x, y float64) (float64, error) {
	return c.Calculate(ctx, OperationDivide, x, y)
}

// Calculate performs exactly one GET against the producer and maps the outcome.
// The returned error is a *TransportError, *ValidationError or *APIError.
func (c *Client) Calculate(ctx context.Context, op Operation, x, y float64) (float64, error) {
	if !op.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}

	reqInfo := RequestInfo{
		Method: http.MethodGet,
		Path:   op.Path(),
		Query: map[string]string{
			c.params.First:  FormatNumber(x),
			c.params.Second: FormatNumber(y),
		},
		Headers: firstValues(c.http.Header),
	}

	c.logger.Debug().
		Str("operation", op.String()).
		Str("url", c.baseURL+reqInfo.RequestURI()).
		Msg("Making calculator API request")

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(reqInfo.Query).
		Get(reqInfo.Path)
	if err != nil {
		return 0, &TransportError{Op: op, URL: c.baseURL + reqInfo.RequestURI(), Err: err}
	}

	status := resp.Status()
	if status == "" {
		status = statusLine(resp.StatusCode())
	}
	interaction := Interaction{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Request:   reqInfo,
		Response: ResponseInfo{
			StatusCode: resp.StatusCode(),
			Status:     status,
			Headers:    firstValues(resp.Header()),
			Body:       resp.Body(),
		},
	}

	if c.interceptor != nil {
		result, err := c.interceptor.Validate(ctx, interaction)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("Contract validation unavailable, continuing without validation")
		case result != nil && !result.Valid:
			return 0, &ValidationError{Errors: append([]string(nil), result.Errors...)}
		}
	}

	value, err := parseResult(interaction.Response)
	if err != nil {
		c.logger.Debug().
			Int("status", resp.StatusCode()).
			Str("operation", op.String()).
			Err(err).
			Msg("Calculator API returned an error")
		return 0, err
	}
	return value, nil
}

// Health checks the producer's /health endpoint. It is not intercepted.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return "", &TransportError{URL: c.baseURL + "/health", Err: err}
	}
	if resp.IsError() {
		status := resp.Status()
		if status == "" {
			status = statusLine(resp.StatusCode())
		}
		return "", &APIError{StatusCode: resp.StatusCode(), Message: status, Body: resp.String()}
	}

	body := gjson.ParseBytes(resp.Body())
	if s := body.Get("status"); s.Type == gjson.String {
		return s.String(), nil
	}
	return "ok", nil
}

// parseResult maps a response body onto a value or an *APIError
func parseResult(resp ResponseInfo) (float64, error) {
	if gjson.ValidBytes(resp.Body) {
		body := gjson.ParseBytes(resp.Body)
		if body.IsObject() {
			result := body.Get("result")
			if result.Type == gjson.Number && resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return result.Float(), nil
			}
			if msg := body.Get("error"); msg.Type == gjson.String {
				return 0, &APIError{
					StatusCode: resp.StatusCode,
					Message:    msg.String(),
					Body:       string(resp.Body),
				}
			}
		}
	}

	return 0, &APIError{
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		Body:       string(resp.Body),
		Malformed:  true,
	}
}

func statusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

func firstValues(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// encodeQuery encodes with keys sorted, matching url.Values.Encode
func encodeQuery(query map[string]string) string {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	return values.Encode()
}
