package infrastructure

import (
	"net/http"
	"time"

	"auto_repost_youtube/config"
)

// HTTPClient wraps pooled HTTP clients for the outbound calls. The regular
// client carries a global timeout sized for API calls (token refresh,
// metadata listing); the streaming client shares the same transport but has
// no global timeout, since http.Client.Timeout covers the whole body read
// and would cut off bulk media transfers that are already bounded by the
// caller's context.
type HTTPClient struct {
	client       *http.Client
	streamClient *http.Client
}

// NewHTTPClient creates clients tuned for long-lived connections to the
// Google API hosts.
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.HTTPClientTimeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

// Do performs an HTTP request.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// GetClient returns the underlying HTTP client.
func (c *HTTPClient) GetClient() *http.Client {
	return c.client
}

// GetStreamingClient returns the client for bulk media transfers. It has no
// global timeout; callers bound transfers with a context deadline.
func (c *HTTPClient) GetStreamingClient() *http.Client {
	return c.streamClient
}
