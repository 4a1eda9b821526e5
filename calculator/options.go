package calculator

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds connect plus read time for a single call
const DefaultTimeout = 10 * time.Second

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout     time.Duration
	httpClient  *http.Client
	interceptor Interceptor
	params      ParamNames
	userAgent   string
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:   DefaultTimeout,
		params:    DefaultParamNames,
		userAgent: "calc-consumer",
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. with a mock transport.
// The client is copied; the copy's Timeout is overridden by WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithInterceptor attaches a validator consulted once per call.
// A nil interceptor disables validation.
func WithInterceptor(interceptor Interceptor) Option {
	return func(o *clientOptions) {
		o.interceptor = interceptor
	}
}

// WithParamNames overrides the operand query parameter names.
func WithParamNames(names ParamNames) Option {
	return func(o *clientOptions) {
		o.params = names
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}
