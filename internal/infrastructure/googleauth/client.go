// Package googleauth wraps the Google OAuth2 endpoint used to exchange a
// refresh token for a fresh access token.
package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"auto_repost_youtube/config"
)

// Client performs refresh-token exchanges against the Google OAuth endpoint.
type Client struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

// NewClient creates a new OAuth client from the configured app credentials.
func NewClient(cfg *config.Config, httpClient *http.Client) *Client {
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes: []string{
				youtube.YoutubeScope,
				youtube.YoutubeUploadScope,
			},
			Endpoint: google.Endpoint,
		},
		httpClient: httpClient,
	}
}

// Refresh exchanges the refresh token for a new access token. A single
// attempt; the caller decides what a failure means.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("exchange refresh token: %w", err)
	}
	return token.AccessToken, token.Expiry, nil
}
