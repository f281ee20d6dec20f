package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_repost_youtube/config"
)

func TestStreamingClientHasNoGlobalTimeout(t *testing.T) {
	cfg := &config.Config{
		HTTPClientTimeout: 45 * time.Second,
		MaxIdleConns:      10,
		MaxConnsPerHost:   5,
	}

	c := NewHTTPClient(cfg)

	// API calls keep the configured deadline; bulk media transfers must not,
	// http.Client.Timeout covers the whole body read and would cut off a
	// download that legitimately runs longer than an API round trip.
	assert.Equal(t, 45*time.Second, c.GetClient().Timeout)
	assert.Zero(t, c.GetStreamingClient().Timeout)

	require.NotNil(t, c.GetStreamingClient().Transport)
	assert.Same(t, c.GetClient().Transport, c.GetStreamingClient().Transport)
}
