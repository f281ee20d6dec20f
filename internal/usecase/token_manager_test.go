package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/repository/memory"
	"auto_repost_youtube/internal/vault"
)

type tokenFixture struct {
	manager   *TokenManager
	users     *memory.UserRepository
	vault     *vault.Vault
	refresher *stubRefresher
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()

	v, err := vault.New(testHexKey)
	require.NoError(t, err)

	f := &tokenFixture{
		users:     memory.NewUserRepository(),
		vault:     v,
		refresher: &stubRefresher{token: "new-access", expiry: time.Now().Add(time.Hour)},
	}
	f.manager = NewTokenManager(v, f.users, f.refresher)
	return f
}

func (f *tokenFixture) seedUser(t *testing.T, expiry *time.Time) *domain.User {
	t.Helper()

	access, err := f.vault.Encrypt("current-access")
	require.NoError(t, err)
	refresh, err := f.vault.Encrypt("current-refresh")
	require.NoError(t, err)

	user := &domain.User{
		Email:        "user@example.com",
		AccessToken:  access,
		RefreshToken: refresh,
		TokenExpiry:  expiry,
	}
	require.NoError(t, f.users.Save(user))
	return user
}

func TestEnsureFreshAccessTokenValidTokenSkipsRefresh(t *testing.T) {
	f := newTokenFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)

	token, err := f.manager.EnsureFreshAccessToken(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "current-access", token)
	assert.Zero(t, f.refresher.calls)
}

func TestEnsureFreshAccessTokenUnknownExpirySkipsRefresh(t *testing.T) {
	f := newTokenFixture(t)
	user := f.seedUser(t, nil)

	token, err := f.manager.EnsureFreshAccessToken(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "current-access", token)
	assert.Zero(t, f.refresher.calls)
}

func TestEnsureFreshAccessTokenRefreshesAndPersists(t *testing.T) {
	f := newTokenFixture(t)
	expired := time.Now().Add(-time.Minute)
	user := f.seedUser(t, &expired)
	oldBlob := user.AccessToken

	token, err := f.manager.EnsureFreshAccessToken(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, f.refresher.calls)

	stored, err := f.users.GetByID(user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldBlob, stored.AccessToken)
	plain, err := f.vault.Decrypt(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-access", plain)
	require.NotNil(t, stored.TokenExpiry)
	assert.True(t, stored.TokenExpiry.After(time.Now()))

	// Within the new expiry window a second call performs no network refresh
	token, err = f.manager.EnsureFreshAccessToken(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, f.refresher.calls)
}

func TestEnsureFreshAccessTokenCorruptBlobIsCredentialError(t *testing.T) {
	f := newTokenFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	user.AccessToken = "garbage-without-separator"

	_, err := f.manager.EnsureFreshAccessToken(context.Background(), user)
	assert.ErrorIs(t, err, domain.ErrCredential)
	assert.Zero(t, f.refresher.calls)
}

func TestEnsureFreshAccessTokenRefreshRejection(t *testing.T) {
	f := newTokenFixture(t)
	expired := time.Now().Add(-time.Minute)
	user := f.seedUser(t, &expired)
	oldBlob := user.AccessToken

	f.refresher.err = errors.New("invalid_grant")
	_, err := f.manager.EnsureFreshAccessToken(context.Background(), user)
	assert.ErrorIs(t, err, domain.ErrTokenRefresh)

	// Stored credentials are untouched after a rejected refresh
	stored, err := f.users.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, oldBlob, stored.AccessToken)
	require.NotNil(t, stored.TokenExpiry)
	assert.WithinDuration(t, expired, *stored.TokenExpiry, time.Second)
}
