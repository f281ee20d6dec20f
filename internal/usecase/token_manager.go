package usecase

import (
	"context"
	"fmt"
	"time"

	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/logger"
	"auto_repost_youtube/internal/vault"
)

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiry time.Time, err error)
}

// TokenManager resolves a usable plaintext access token for a user. Tokens are
// stored encrypted; this is the only component that decrypts them.
type TokenManager struct {
	vault     *vault.Vault
	users     domain.UserRepository
	refresher TokenRefresher
	now       func() time.Time
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(v *vault.Vault, users domain.UserRepository, refresher TokenRefresher) *TokenManager {
	return &TokenManager{
		vault:     v,
		users:     users,
		refresher: refresher,
		now:       time.Now,
	}
}

// EnsureFreshAccessToken returns a plaintext access token that is valid now.
// If the stored token has not expired it is decrypted and returned as-is; no
// network call is made. Otherwise the refresh token is exchanged once, the new
// access token is re-encrypted and persisted together with its expiry, and the
// plaintext is returned.
//
// Decryption failures wrap domain.ErrCredential, refresh rejections wrap
// domain.ErrTokenRefresh; both mean the user must re-authorize.
func (m *TokenManager) EnsureFreshAccessToken(ctx context.Context, user *domain.User) (string, error) {
	accessToken, err := m.vault.Decrypt(user.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: decrypt access token for user %s: %v", domain.ErrCredential, user.ID, err)
	}

	// Unknown expiry is treated as still valid; the upload call will surface
	// a rejection if the provider disagrees
	if user.TokenExpiry == nil || user.TokenExpiry.After(m.now()) {
		return accessToken, nil
	}

	refreshToken, err := m.vault.Decrypt(user.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: decrypt refresh token for user %s: %v", domain.ErrCredential, user.ID, err)
	}

	newToken, expiry, err := m.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w for user %s: %v", domain.ErrTokenRefresh, user.ID, err)
	}

	encrypted, err := m.vault.Encrypt(newToken)
	if err != nil {
		return "", fmt.Errorf("encrypt refreshed access token for user %s: %w", user.ID, err)
	}

	var expiryPtr *time.Time
	if !expiry.IsZero() {
		expiryPtr = &expiry
	}
	if err := m.users.UpdateTokens(user.ID, encrypted, expiryPtr); err != nil {
		return "", fmt.Errorf("persist refreshed token for user %s: %w", user.ID, err)
	}

	// Keep the caller's copy consistent with what was just persisted
	user.AccessToken = encrypted
	user.TokenExpiry = expiryPtr

	logger.Infof("Refreshed access token for user %s, new expiry %v", user.ID, expiry)
	return newToken, nil
}
