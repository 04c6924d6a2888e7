package http

import (
	"net/http"
	"time"

	commonshttp "github.com/flanksource/commons/http"
	"github.com/flanksource/commons/logger"
)

const DefaultUserAgent = "cryptnox-installer"

// ClientOption configures the HTTP client
type ClientOption func(*clientConfig)

type clientConfig struct {
	timeout   time.Duration
	userAgent string
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with every request
func WithUserAgent(agent string) ClientOption {
	return func(c *clientConfig) {
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// GetHttpClient returns the client used for the package index, release downloads and checksum manifests.
// Headers and bodies are logged when tracing is enabled.
func GetHttpClient(opts ...ClientOption) *http.Client {
	cfg := &clientConfig{
		timeout:   60 * time.Second,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := commonshttp.NewClient().
		Timeout(cfg.timeout).
		UserAgent(cfg.userAgent)

	if logger.IsTraceEnabled() {
		client = client.WithHttpLogging(logger.Trace1, logger.Trace2)
	}

	return &http.Client{
		Transport: client,
		Timeout:   cfg.timeout,
	}
}
