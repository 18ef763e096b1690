package httpclient

import (
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

type Config struct {
	baseURL          string
	timeout          time.Duration
	retryCount       int
	retryWaitTime    time.Duration
	retryMaxWaitTime time.Duration
}

type Option func(c *Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = baseURL
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

func WithRetryCount(count int) Option {
	return func(c *Config) {
		c.retryCount = count
	}
}

func WithRetryWaitTime(waitTime time.Duration) Option {
	return func(c *Config) {
		c.retryWaitTime = waitTime
	}
}

func WithRetryMaxWaitTime(maxWaitTime time.Duration) Option {
	return func(c *Config) {
		c.retryMaxWaitTime = maxWaitTime
	}
}

// New returns a resty client that retries once by default. Only transport failures,
// 429 and 5xx responses are retried.
func New(opts ...Option) *resty.Client {
	cfg := &Config{
		baseURL:          "",
		timeout:          10 * time.Second,
		retryCount:       1,
		retryWaitTime:    1 * time.Second,
		retryMaxWaitTime: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := resty.New().
		SetBaseURL(cfg.baseURL).
		SetTimeout(cfg.timeout).
		SetRetryCount(cfg.retryCount).       // Number of retry attempts
		SetRetryWaitTime(cfg.retryWaitTime). // Initial wait time between retries
		SetRetryMaxWaitTime(cfg.retryMaxWaitTime).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if IsRetryableError(err) {
				return true
			}

			return resp != nil && IsRetryableStatus(resp.StatusCode())
		})

	return client
}

// IsRetryableStatus reports whether the response status is transient.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// IsRetryableError checks if the error is a retryable error.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		// Connection refused error
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			// Connection timeout error
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// DNS error
		return true
	}

	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		// Address error
		return true
	}

	// Operational error
	var opErr *net.OpError

	return errors.As(err, &opErr)
}
